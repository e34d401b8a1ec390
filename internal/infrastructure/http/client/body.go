package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
)

// ContentTypeJSON is forced on every request that is not a multipart upload.
const ContentTypeJSON = "application/json"

// Body produces a request payload.
type Body interface {
	// Encode returns the payload and its content type.
	Encode() (io.Reader, string, error)
}

type jsonBody struct {
	v any
}

// JSON encodes v as the request body.
func JSON(v any) Body {
	return jsonBody{v: v}
}

func (b jsonBody) Encode() (io.Reader, string, error) {
	data, err := json.Marshal(b.v)
	if err != nil {
		return nil, "", fmt.Errorf("encode json body: %w", err)
	}
	return bytes.NewReader(data), ContentTypeJSON, nil
}

// File is one file part of a multipart form.
type File struct {
	Field    string
	Filename string
	Content  io.Reader
}

type multipartBody struct {
	fields map[string]string
	files  []File
}

// Multipart encodes fields and files as multipart/form-data. It is used for
// part create/update calls that carry an image.
func Multipart(fields map[string]string, files ...File) Body {
	return multipartBody{fields: fields, files: files}
}

func (b multipartBody) Encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range b.fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("write form field %s: %w", k, err)
		}
	}
	for _, f := range b.files {
		part, err := w.CreateFormFile(f.Field, f.Filename)
		if err != nil {
			return nil, "", fmt.Errorf("create form file %s: %w", f.Field, err)
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return nil, "", fmt.Errorf("copy form file %s: %w", f.Field, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}
