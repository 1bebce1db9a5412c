package media

import (
	"bytes"
	"strings"
	"unicode/utf16"

	exif "github.com/dsoprea/go-exif/v3"
	exifcommon "github.com/dsoprea/go-exif/v3/common"
	jpegstructure "github.com/dsoprea/go-jpeg-image-structure/v2"

	"daycaresync/pkg/errors"
)

// XP* EXIF fields hold UTF-16LE byte arrays so titles and keywords survive
// viewers that only read the Windows metadata block.
const (
	exifTitleTag    = "XPTitle"
	exifKeywordsTag = "XPKeywords"
)

// embedPhotoMetadata re-encodes a JPEG with XPTitle set to the title and
// XPKeywords set to the comma-joined keyword list.
func embedPhotoMetadata(data []byte, title string, keywords []string) ([]byte, error) {
	jmp := jpegstructure.NewJpegMediaParser()
	intfc, err := jmp.ParseBytes(data)
	if err != nil {
		return nil, errors.New(errors.ErrorTypeMediaWrite, "undecodable JPEG: %v", err)
	}
	sl := intfc.(*jpegstructure.SegmentList)

	rootIb, err := sl.ConstructExifBuilder()
	if err != nil {
		// No existing EXIF block; start a fresh one.
		im, err := exifcommon.NewIfdMappingWithStandard()
		if err != nil {
			return nil, errors.New(errors.ErrorTypeMediaWrite, "failed to build IFD mapping: %v", err)
		}
		ti := exif.NewTagIndex()
		rootIb = exif.NewIfdBuilder(im, ti, exifcommon.IfdStandardIfdIdentity, exifcommon.EncodeDefaultByteOrder)
	}

	ifd0, err := exif.GetOrCreateIbFromRootIb(rootIb, "IFD0")
	if err != nil {
		return nil, errors.New(errors.ErrorTypeMediaWrite, "failed to resolve IFD0: %v", err)
	}

	if err := ifd0.SetStandardWithName(exifTitleTag, encodeUTF16LE(title)); err != nil {
		return nil, errors.New(errors.ErrorTypeMediaWrite, "failed to set title: %v", err)
	}
	if err := ifd0.SetStandardWithName(exifKeywordsTag, encodeUTF16LE(strings.Join(keywords, ","))); err != nil {
		return nil, errors.New(errors.ErrorTypeMediaWrite, "failed to set keywords: %v", err)
	}

	if err := sl.SetExif(rootIb); err != nil {
		return nil, errors.New(errors.ErrorTypeMediaWrite, "failed to attach EXIF block: %v", err)
	}

	var buf bytes.Buffer
	if err := sl.Write(&buf); err != nil {
		return nil, errors.New(errors.ErrorTypeMediaWrite, "failed to re-encode JPEG: %v", err)
	}

	return buf.Bytes(), nil
}

// ReadPhotoMetadata returns the embedded title and keyword list of a tagged
// JPEG. The inverse of what the writer embeds; used for verification.
func ReadPhotoMetadata(data []byte) (title string, keywords []string, err error) {
	rawExif, err := exif.SearchAndExtractExif(data)
	if err != nil {
		return "", nil, errors.New(errors.ErrorTypeMediaWrite, "no EXIF data found: %v", err)
	}

	entries, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return "", nil, errors.New(errors.ErrorTypeMediaWrite, "failed to parse EXIF data: %v", err)
	}

	for _, entry := range entries {
		raw, ok := entry.Value.([]byte)
		if !ok {
			continue
		}
		switch entry.TagName {
		case exifTitleTag:
			title = decodeUTF16LE(raw)
		case exifKeywordsTag:
			if joined := decodeUTF16LE(raw); joined != "" {
				keywords = strings.Split(joined, ",")
			}
		}
	}

	return title, keywords, nil
}

// encodeUTF16LE encodes a string as UTF-16LE bytes
func encodeUTF16LE(s string) []byte {
	codes := utf16.Encode([]rune(s))
	out := make([]byte, 0, len(codes)*2)
	for _, c := range codes {
		out = append(out, byte(c), byte(c>>8))
	}
	return out
}

// decodeUTF16LE decodes UTF-16LE bytes, dropping any trailing NUL
func decodeUTF16LE(b []byte) string {
	codes := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		codes = append(codes, uint16(b[i])|uint16(b[i+1])<<8)
	}
	return strings.TrimRight(string(utf16.Decode(codes)), "\x00")
}
