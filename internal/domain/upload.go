package domain

import "io"

// Upload is a file received from a client before it is stored.
type Upload struct {
	Name string
	Type string // declared content type, may be empty
	Size int64
	Body io.Reader
}

// UploadResult is returned by POST /api/upload and is what clients attach
// to a message as its File.
type UploadResult struct {
	FileURL  string `json:"fileUrl"`
	FileName string `json:"fileName"`
	FileType string `json:"fileType"`
	FileSize int64  `json:"fileSize"`
}

// AsFile converts an upload result into a message attachment.
func (r UploadResult) AsFile() *File {
	return &File{URL: r.FileURL, Name: r.FileName, Type: r.FileType, Size: r.FileSize}
}
