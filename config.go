package vellum

import (
	"time"

	"github.com/sirupsen/logrus"
)

type Duration time.Duration

func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	unmarshal(&s)
	parsed, err := time.ParseDuration(s)
	*d = Duration(parsed)
	return err
}

type LogLevel struct {
	l *logrus.Level
}

func (l *LogLevel) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	unmarshal(&s)
	lev, err := logrus.ParseLevel(s)
	l.l = &lev
	return err
}

func (l *LogLevel) LogrusLevel() logrus.Level {
	if l.l == nil {
		return logrus.InfoLevel
	}
	return *l.l
}

// Limits bound user-supplied metadata. Byte limits guard storage;
// grapheme limits guard display.
type Limits struct {
	PasteNameBytes       int      `yaml:"paste_name_bytes"`
	PasteNameGraphemes   int      `yaml:"paste_name_graphemes"`
	DescriptionBytes     int      `yaml:"description_bytes"`
	DescriptionGraphemes int      `yaml:"description_graphemes"`
	FileNameBytes        int      `yaml:"file_name_bytes"`
	MaxExpiration        Duration `yaml:"max_expiration"`
}

func DefaultLimits() Limits {
	return Limits{
		PasteNameBytes:       160,
		PasteNameGraphemes:   120,
		DescriptionBytes:     1024,
		DescriptionGraphemes: 600,
		FileNameBytes:        255,
	}
}

type Configuration struct {
	Database struct {
		Dialect    string
		Connection string
	}

	Store struct {
		Root string
	}

	Web struct {
		Bind    string
		Proxied bool
	}

	Session struct {
		AuthenticationKey string `yaml:"auth_key"`
	}

	Logging struct {
		Level LogLevel
	}

	Limits Limits

	Expiry struct {
		SweepInterval Duration `yaml:"sweep_interval"`
	}

	Jobs struct {
		AMQP  string
		Queue string
	}
}

type ConfigurationService interface {
	LoadConfiguration() (*Configuration, error)
}
