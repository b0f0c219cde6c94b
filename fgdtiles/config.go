package fgdtiles

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"runtime"

	"github.com/sirupsen/logrus"
	yaml "gopkg.in/yaml.v2"
)

const DefaultPattern = `(5439|5440|5638|5639)\d\d-ALL`

type Config struct {
	// Directory tree holding the distribution archives.
	Source string `yaml:"source"`
	// Intermediate record files, one per archive.
	Converted string `yaml:"converted"`
	Spool     string `yaml:"spool"`
	Output    string `yaml:"output"`
	Deploy    string `yaml:"deploy"`

	Zoom       int    `yaml:"zoom"`
	Pattern    string `yaml:"pattern"`
	Workers    int    `yaml:"workers"`
	Partitions int    `yaml:"partitions"`
	LogLevel   string `yaml:"log_level"`
	TopoJSON   bool   `yaml:"topojson"`
}

func NewConfig() *Config {
	return &Config{
		Source:     "source",
		Converted:  "input",
		Spool:      "spool",
		Output:     "output",
		Deploy:     "dst",
		Zoom:       18,
		Pattern:    DefaultPattern,
		Workers:    runtime.NumCPU(),
		Partitions: 16,
		LogLevel:   "info",
	}
}

// ReadConfig loads a config file. A missing file yields the defaults.
func ReadConfig(filename string) (*Config, error) {
	_, err := os.Stat(filename)
	if os.IsNotExist(err) {
		return NewConfig(), nil
	}
	if err != nil {
		return nil, err
	}

	fp, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	return ParseConfig(fp)
}

func ParseConfig(in io.Reader) (*Config, error) {
	c := NewConfig()
	err := yaml.NewDecoder(in).Decode(c)
	if err != nil && err != io.EOF {
		return nil, err
	}

	err = c.Validate()
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	if c.Zoom < 0 || c.Zoom > 30 {
		return fmt.Errorf("Invalid zoom level: %d", c.Zoom)
	}
	if c.Workers < 1 {
		return fmt.Errorf("Invalid worker count: %d", c.Workers)
	}
	if c.Partitions < 1 {
		return fmt.Errorf("Invalid partition count: %d", c.Partitions)
	}
	_, err := regexp.Compile(c.Pattern)
	if err != nil {
		return fmt.Errorf("Invalid pattern: %w", err)
	}
	_, err = logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return err
	}
	return nil
}

func (c *Config) Level() logrus.Level {
	l, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return l
}
