// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package http

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

func ExampleRuntime_Run() {
	rt := NewRuntime(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "Hello, world")
		}),
		ListenOn("127.0.0.1:8080"),
		ShutdownTimeout(5*time.Second),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := rt.Run(ctx)
	if err != nil {
		fmt.Println(err)
	}
}
