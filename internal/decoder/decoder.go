package decoder

import (
	"encoding/base64"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/wonny/stockdash/internal/contracts"
	"github.com/wonny/stockdash/pkg/logger"
)

// File is one uploaded file as the browser upload widget sends it.
// Contents is a data URL ("data:<mime>;base64,<payload>") or bare base64.
type File struct {
	Name     string `json:"name"`
	Contents string `json:"contents"`
}

// NewFile encodes raw bytes the way the upload widget does
func NewFile(name string, data []byte) File {
	return File{
		Name:     name,
		Contents: "data:" + mimeType(name) + ";base64," + base64.StdEncoding.EncodeToString(data),
	}
}

func mimeType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return "text/csv"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".xls":
		return "application/vnd.ms-excel"
	default:
		return "application/octet-stream"
	}
}

// Decoder turns uploaded files into datasets
// ⭐ SSOT: 업로드 파일 파싱은 이 디코더에서만
type Decoder struct {
	maxBytes int64
	logger   *logger.Logger
}

// New creates a decoder that rejects files larger than maxBytes once decoded
func New(maxBytes int64, log *logger.Logger) *Decoder {
	return &Decoder{
		maxBytes: maxBytes,
		logger:   log,
	}
}

// Decode parses one uploaded file. Every failure is a *DecodeError.
func (d *Decoder) Decode(f File) (*contracts.Dataset, error) {
	data, err := d.decodePayload(f.Contents)
	if err != nil {
		return nil, newDecodeError(f.Name, err)
	}

	var ds *contracts.Dataset
	switch format(f.Name) {
	case formatCSV:
		ds, err = parseCSV(data)
	case formatExcel:
		ds, err = parseExcel(data)
	default:
		err = fmt.Errorf("%w: %q", ErrUnsupportedFormat, f.Name)
	}
	if err != nil {
		return nil, newDecodeError(f.Name, err)
	}

	return ds, nil
}

// BatchResult is the outcome of a multi-file upload.
// Dataset is the last file that decoded successfully, or nil.
type BatchResult struct {
	Dataset *contracts.Dataset
	File    string
	Errors  []*DecodeError
}

// DecodeBatch decodes files in order and keeps only the last successful
// dataset; earlier successes are discarded.
func (d *Decoder) DecodeBatch(files []File) BatchResult {
	var result BatchResult

	for _, f := range files {
		ds, err := d.Decode(f)
		if err != nil {
			var de *DecodeError
			if !errors.As(err, &de) {
				de = newDecodeError(f.Name, err)
			}
			d.logger.WithError(de.Err).WithField("file", f.Name).Warn("Upload rejected")
			result.Errors = append(result.Errors, de)
			continue
		}

		if result.Dataset != nil {
			d.logger.WithFields(map[string]interface{}{
				"discarded": result.File,
				"kept":      f.Name,
			}).Debug("Replacing earlier file in batch")
		}

		result.Dataset = ds
		result.File = f.Name
	}

	return result
}

func (d *Decoder) decodePayload(contents string) ([]byte, error) {
	payload := contents
	if strings.HasPrefix(contents, "data:") {
		header, data, ok := strings.Cut(contents, ",")
		if !ok {
			return nil, fmt.Errorf("%w: data URL without payload", ErrInvalidPayload)
		}
		if !strings.HasSuffix(header, ";base64") {
			return nil, fmt.Errorf("%w: data URL is not base64 encoded", ErrInvalidPayload)
		}
		payload = data
	}
	payload = strings.TrimSpace(payload)

	if d.maxBytes > 0 && int64(base64.StdEncoding.DecodedLen(len(payload))) > d.maxBytes+2 {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, d.maxBytes)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	if d.maxBytes > 0 && int64(len(data)) > d.maxBytes {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, d.maxBytes)
	}

	return data, nil
}

type fileFormat int

const (
	formatUnknown fileFormat = iota
	formatCSV
	formatExcel
)

// format picks a parser from the file name: "csv" wins over "xls"
func format(name string) fileFormat {
	name = strings.ToLower(name)
	switch {
	case strings.Contains(name, "csv"):
		return formatCSV
	case strings.Contains(name, "xls"):
		return formatExcel
	default:
		return formatUnknown
	}
}
