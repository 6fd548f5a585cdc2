// Package zipkit extracts, lists, and tests entries from ZIP archives
// produced by the PKZIP 2.x / APPNOTE family, including the Zip64
// large-file extensions and Unicode path fields.
//
// The package reads a seekable archive, locates the central directory, and
// for each selected entry either decompresses its payload to a file,
// streams it to an output sink, verifies its integrity, or reports its
// metadata. See internal/driver for the orchestration and internal/cd for
// central-directory discovery and iteration.
//
// The data model and error taxonomy live in internal/model and are
// re-exported here by type alias, since internal/driver (which this
// package's Archive wraps) needs those types too and Go forbids the
// import cycle that would result from defining them directly in this
// package.
package zipkit

import "github.com/nguyengg/zipkit/internal/model"

type (
	HostOS          = model.HostOS
	Method          = model.Method
	UnicodePolicy   = model.UnicodePolicy
	OverwritePolicy = model.OverwritePolicy
	Entry           = model.Entry
	Kind            = model.Kind
	Error           = model.Error
)

const (
	HostMSDOS        = model.HostMSDOS
	HostAmiga        = model.HostAmiga
	HostOpenVMS      = model.HostOpenVMS
	HostUnix         = model.HostUnix
	HostVMCMS        = model.HostVMCMS
	HostAtariST      = model.HostAtariST
	HostOS2HPFS      = model.HostOS2HPFS
	HostMacintosh    = model.HostMacintosh
	HostZSystem      = model.HostZSystem
	HostCPM          = model.HostCPM
	HostWindowsNTFS  = model.HostWindowsNTFS
	HostMVS          = model.HostMVS
	HostVSE          = model.HostVSE
	HostAcornRISCOS  = model.HostAcornRISCOS
	HostVFAT         = model.HostVFAT
	HostAlternateMVS = model.HostAlternateMVS
	HostBeOS         = model.HostBeOS
	HostTandem       = model.HostTandem
	HostOS400        = model.HostOS400
	HostOSXDarwin    = model.HostOSXDarwin

	MethodStored    = model.MethodStored
	MethodShrink    = model.MethodShrink
	MethodReduce1   = model.MethodReduce1
	MethodReduce2   = model.MethodReduce2
	MethodReduce3   = model.MethodReduce3
	MethodReduce4   = model.MethodReduce4
	MethodImplode   = model.MethodImplode
	MethodDeflate   = model.MethodDeflate
	MethodDeflate64 = model.MethodDeflate64
	MethodBZip2     = model.MethodBZip2
	MethodLZMA      = model.MethodLZMA

	UnicodeWarnFallback = model.UnicodeWarnFallback
	UnicodeIgnore        = model.UnicodeIgnore
	UnicodeStrict        = model.UnicodeStrict

	OverwriteNever    = model.OverwriteNever
	OverwriteAlways   = model.OverwriteAlways
	OverwriteFreshen  = model.OverwriteFreshen
	OverwriteUpdate   = model.OverwriteUpdate
	OverwritePrompt   = model.OverwritePrompt

	KindIoError            = model.KindIoError
	KindNotAZipfile        = model.KindNotAZipfile
	KindCorruptDirectory   = model.KindCorruptDirectory
	KindCorruptLocalHeader = model.KindCorruptLocalHeader
	KindUnsupportedMethod  = model.KindUnsupportedMethod
	KindCrcError           = model.KindCrcError
	KindBadPassword        = model.KindBadPassword
	KindTruncatedEntry     = model.KindTruncatedEntry
	KindUnsafePath         = model.KindUnsafePath
	KindDiskFull           = model.KindDiskFull
	KindCancelled          = model.KindCancelled
	KindWarning            = model.KindWarning
	KindOK                 = model.KindOK
)
