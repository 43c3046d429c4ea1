package pack

import "errors"

// Sentinel errors returned by package operations. A nil error means success.
// Errors are wrapped with context, so callers should match with errors.Is.
var (
	// ErrEmptyFileName is returned when a package base name or file path is blank.
	ErrEmptyFileName = errors.New("empty file name")

	// ErrFileOpenFail is returned when a header, bundle or source file cannot be opened.
	ErrFileOpenFail = errors.New("file open failed")

	// ErrFileReadFail is returned when reading a file fails.
	ErrFileReadFail = errors.New("file read failed")

	// ErrFileWriteFail is returned when writing a file fails.
	ErrFileWriteFail = errors.New("file write failed")

	// ErrFileSizeError is returned when a file is shorter than its recorded layout
	// or would grow past the 32-bit offset range.
	ErrFileSizeError = errors.New("file size error")

	// ErrReadSizeCheck is returned when the bundle yields fewer bytes than recorded.
	ErrReadSizeCheck = errors.New("read size check failed")

	// ErrWriteSizeCheck is returned when fewer bytes were written than requested.
	ErrWriteSizeCheck = errors.New("write size check failed")

	// ErrEmptyBuffer is returned when an asset payload is empty.
	ErrEmptyBuffer = errors.New("empty buffer")

	// ErrEmptyKey is returned when an asset key is blank.
	ErrEmptyKey = errors.New("empty asset key")

	// ErrCompressFail is returned when the payload compressor fails.
	ErrCompressFail = errors.New("compression failed")

	// ErrDecompressFail is returned when a stored payload cannot be decompressed
	// to its recorded original size.
	ErrDecompressFail = errors.New("decompression failed")

	// ErrZeroSizeAsset is returned when a catalog entry records an original size of zero.
	ErrZeroSizeAsset = errors.New("zero size asset")

	// ErrAssetSizeError is returned when an asset does not fit the 32-bit size fields
	// or its recorded range lies outside the bundle file.
	ErrAssetSizeError = errors.New("asset size error")

	// ErrInvalidHeaderData is returned when the header catalog is missing or malformed.
	ErrInvalidHeaderData = errors.New("invalid header data")

	// ErrInvalidNameList is returned when the name list is missing or malformed.
	ErrInvalidNameList = errors.New("invalid name list")

	// ErrEmptyHeader is returned when the header file holds no data.
	ErrEmptyHeader = errors.New("empty header")

	// ErrEmptyNameList is returned when assets are recorded but the name list is empty.
	ErrEmptyNameList = errors.New("empty name list")

	// ErrDuplicatedKey is returned when adding a key that already exists.
	ErrDuplicatedKey = errors.New("duplicated key")

	// ErrNotExistedKey is returned when a key is not in the package.
	ErrNotExistedKey = errors.New("key does not exist")

	// ErrNotOpen is returned when operating on a package that was never
	// created or opened, or has been closed.
	ErrNotOpen = errors.New("package is not open")

	// ErrChecksumMismatch is returned when a retrieved payload does not match
	// its stored non-zero CRC.
	ErrChecksumMismatch = errors.New("checksum mismatch")
)
