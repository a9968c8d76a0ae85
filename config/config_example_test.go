// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"fmt"
	"strings"
	"testing/fstest"
)

func Example() {
	type Config struct {
		Host string `config:"host"`
		Port int    `config:"port"`
	}

	m, err := Read(
		Map{"host": "127.0.0.1", "port": 8000},
		FromYaml(strings.NewReader("port: 9000")),
	)
	if err != nil {
		fmt.Println(err)
		return
	}

	var cfg Config
	err = m.Unmarshal(&cfg)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(cfg.Host, cfg.Port)
	// Output: 127.0.0.1 9000
}

func Example_sourceChain() {
	type Config struct {
		Port  int    `config:"listen_port"`
		Token string `config:"api_token"`
	}

	files := fstest.MapFS{
		"config.yaml": &fstest.MapFile{Data: []byte(`listen_port: {{ env "KEYSTONE_EXAMPLE_UNSET" | default "9000" }}`)},
	}
	secrets := fstest.MapFS{
		"api_token": &fstest.MapFile{Data: []byte("s3cr3t\n")},
	}

	m, err := Read(
		Map{"listen_port": 8000},
		FromYaml(RenderTemplate(NewFileReader(files, "config.yaml"))),
		FromDir(secrets),
		FromEnv(Alias("DATABASE_URL", "DATABASE_URI")),
	)
	if err != nil {
		fmt.Println(err)
		return
	}

	var cfg Config
	err = m.Unmarshal(&cfg)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(cfg.Port, cfg.Token)
	// Output: 9000 s3cr3t
}
