package main

import (
	"bytes"
	"os"
	"text/template"

	yaml "gopkg.in/yaml.v2"

	"howett.net/vellum"
)

var _ vellum.ConfigurationService = &fileConfigurationService{}

// fileConfigurationService layers YAML files, each rendered through
// text/template with an env function so secrets can stay out of the
// files themselves.
type fileConfigurationService struct {
	files []string
}

func (fc *fileConfigurationService) LoadConfiguration() (*vellum.Configuration, error) {
	c := &vellum.Configuration{}
	c.Limits = vellum.DefaultLimits()
	for _, file := range fc.files {
		if err := fc.appendFileToConfiguration(c, file); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (fc *fileConfigurationService) appendFileToConfiguration(c *vellum.Configuration, filename string) error {
	tmpl := template.New(filename).Funcs(template.FuncMap{
		"env": func(key string) (string, error) {
			return os.Getenv(key), nil
		},
	})

	raw, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	tmpl, err = tmpl.Parse(string(raw))
	if err != nil {
		return err
	}

	buf := &bytes.Buffer{}
	if err := tmpl.Execute(buf, c); err != nil {
		return err
	}

	return yaml.Unmarshal(buf.Bytes(), c)
}

func NewFileConfigurationService(files []string) vellum.ConfigurationService {
	return &fileConfigurationService{
		files: files,
	}
}
