// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package logctx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

func Example() {
	var buf bytes.Buffer
	logger := NewLogger(slog.NewJSONHandler(&buf, &slog.HandlerOptions{}))

	ctx := New(context.Background(), slog.String("request_id", "abc123"))
	ctx = With(ctx, slog.String("path", "/heroes"))

	logger.InfoContext(ctx, "hello world")

	var record struct {
		Message   string `json:"msg"`
		RequestID string `json:"request_id"`
		Path      string `json:"path"`
	}
	err := json.Unmarshal(buf.Bytes(), &record)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(record.Message)
	fmt.Println(record.RequestID)
	fmt.Print(record.Path)
	// Output: hello world
	// abc123
	// /heroes
}

func ExampleHandler_WithGroup() {
	var buf bytes.Buffer
	var h slog.Handler = NewHandler(slog.NewJSONHandler(&buf, &slog.HandlerOptions{}))
	h = h.WithGroup("n")

	logger := slog.New(h)
	logger.Info("hello world", slog.Int("one", 1))

	var record struct {
		Message string `json:"msg"`
		N       struct {
			One int `json:"one"`
		} `json:"n"`
	}
	err := json.Unmarshal(buf.Bytes(), &record)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(record.Message)
	fmt.Print(record.N.One)
	// Output: hello world
	// 1
}
