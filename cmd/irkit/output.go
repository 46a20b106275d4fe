package main

import (
	"encoding/json"
	"fmt"
	"io"
)

// response is the JSON envelope of every command's output.
type response struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
	Error  string `json:"error,omitempty"`
}

// output writes command results in the selected format.
type output struct {
	format string
	w      io.Writer
}

func newOutput(opts *rootOptions, w io.Writer) *output {
	return &output{format: opts.Format, w: w}
}

func (o *output) json() bool {
	return o.format == "json"
}

// success writes data as JSON, or calls text to render it.
func (o *output) success(data any, text func(io.Writer) error) error {
	if o.json() {
		return json.NewEncoder(o.w).Encode(response{Status: "ok", Data: data})
	}
	return text(o.w)
}

// failure reports err in the JSON envelope and returns it so the command fails.
func (o *output) failure(err error) error {
	if o.json() {
		if encErr := json.NewEncoder(o.w).Encode(response{Status: "error", Error: err.Error()}); encErr != nil {
			return fmt.Errorf("%w (encode: %v)", err, encErr)
		}
	}
	return err
}
