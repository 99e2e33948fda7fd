// Copyright (c) 2025 QueryMind
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/url"
	"strings"
)

// Body is a request payload together with its content type.
type Body interface {
	ContentType() string
	Reader() (io.Reader, error)
}

type jsonBody struct{ v any }

// JSON encodes v as application/json.
func JSON(v any) Body { return jsonBody{v: v} }

func (b jsonBody) ContentType() string { return "application/json" }

func (b jsonBody) Reader() (io.Reader, error) {
	data, err := json.Marshal(b.v)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(data), nil
}

type formBody struct{ values url.Values }

// Form encodes values as application/x-www-form-urlencoded.
func Form(values url.Values) Body { return formBody{values: values} }

func (b formBody) ContentType() string { return "application/x-www-form-urlencoded" }

func (b formBody) Reader() (io.Reader, error) {
	return strings.NewReader(b.values.Encode()), nil
}

type multipartBody struct {
	field    string
	filename string
	data     []byte
	boundary string
}

// Multipart sends data as a single file part named field.
func Multipart(field, filename string, data []byte) Body {
	return &multipartBody{field: field, filename: filename, data: data}
}

func (b *multipartBody) ContentType() string {
	return "multipart/form-data; boundary=" + b.ensureBoundary()
}

func (b *multipartBody) ensureBoundary() string {
	if b.boundary == "" {
		b.boundary = multipart.NewWriter(io.Discard).Boundary()
	}
	return b.boundary
}

func (b *multipartBody) Reader() (io.Reader, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.SetBoundary(b.ensureBoundary()); err != nil {
		return nil, err
	}
	part, err := w.CreateFormFile(b.field, b.filename)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(b.data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return &buf, nil
}
