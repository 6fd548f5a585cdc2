package main

import (
	"github.com/jessevdk/go-flags"

	"github.com/nguyengg/zipkit/internal/cmd/extract"
	"github.com/nguyengg/zipkit/internal/cmd/list"
	"github.com/nguyengg/zipkit/internal/cmd/test"
)

var opts struct {
	Extract extract.Command `command:"extract" alias:"x" description:"extract a ZIP archive to a destination directory"`
	List    list.Command    `command:"list" alias:"ls" description:"list the contents of a ZIP archive"`
	Test    test.Command    `command:"test" alias:"t" description:"verify a ZIP archive's integrity without extracting"`
}

func main() {
	p := flags.NewParser(&opts, flags.Default)
	p.CommandHandler = func(command flags.Commander, args []string) error {
		return command.Execute(args)
	}

	_, err := p.Parse()
	exit(err)
}
