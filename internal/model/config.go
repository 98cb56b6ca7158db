package model

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueyaml "cuelang.org/go/encoding/yaml"
	"gopkg.in/yaml.v3"

	_ "embed"
)

//go:embed config.cue
var cueSource []byte

var (
	cueCtx *cue.Context
	schema cue.Value
)

func init() {
	if len(cueSource) == 0 {
		panic("variable cueSource is empty")
	}
	cueCtx = cuecontext.New()
	compiled := cueCtx.CompileBytes(cueSource, cue.Filename("config.cue"))
	if compiled.Err() != nil {
		panic(compiled.Err())
	}
	if err := compiled.Validate(); err != nil {
		panic(err)
	}

	schema = compiled.LookupPath(cue.ParsePath("#Config"))
	if schema.Err() != nil {
		panic(schema.Err())
	}
}

const (
	// EnvWorkerBin overrides the interpreter used to launch the worker.
	EnvWorkerBin = "WORKER_BIN"

	DefaultInterpreter = "python3"
	DefaultEntry       = "backend/main.py"
	DefaultUIURL       = "http://127.0.0.1:8610"
	DefaultTooltip     = "Whisper Dictation"

	CaptureLog  = "log"
	CaptureHold = "hold"

	LogStderr  = "stderr"
	LogStdout  = "stdout"
	LogDiscard = "discard"

	configFileName = "dictation.yaml"
)

type Config struct {
	Version int     `yaml:"version"` // fixed 0 for now
	Worker  Worker  `yaml:"worker"`
	UI      UI      `yaml:"ui"`
	Service Service `yaml:"service"`
}

// Worker describes the backend process owned by the host.
type Worker struct {
	Interpreter string            `yaml:"interpreter"`
	Entry       string            `yaml:"entry"`
	Args        []string          `yaml:"args,omitempty"`
	Env         map[string]string `yaml:"env,omitempty"`
	ResourceDir string            `yaml:"resource_dir,omitempty"` // empty => host executable dir
	GracePeriod Duration          `yaml:"grace_period"`           // 0 => kill immediately
	StopTimeout Duration          `yaml:"stop_timeout"`           // 0 => wait forever
	Capture     string            `yaml:"capture"`                // "log" | "hold"
}

// UI settings for the tray and the main window.
type UI struct {
	URL     string `yaml:"url"` // empty => no main window
	Tooltip string `yaml:"tooltip"`
}

type Service struct {
	Verbose bool   `yaml:"verbose"`
	Log     string `yaml:"log"`            // "stderr"|"stdout"|"discard"|path
	Lock    string `yaml:"lock,omitempty"` // pid lock path
}

// Duration is a time.Duration encoded as a Go duration string in YAML.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	if s == "" {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = Duration(v)
	return nil
}

func DefaultConfig() Config {
	return Config{
		Version: 0,
		Worker: Worker{
			Interpreter: DefaultInterpreter,
			Entry:       DefaultEntry,
			Capture:     CaptureLog,
		},
		UI: UI{
			URL:     DefaultUIURL,
			Tooltip: DefaultTooltip,
		},
		Service: Service{
			Log: LogStderr,
		},
	}
}

// LoadConfig validates YAML from r against the CUE schema, decodes it on top
// of DefaultConfig and validates the result. Schema violations are returned as
// CUE errors, see ConfigErrDetails.
func LoadConfig(r io.Reader) (Config, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return Config{}, err
	}
	if len(bytes.TrimSpace(b)) > 0 {
		if err := validateSchema(b); err != nil {
			return Config{}, err
		}
	}

	cfg := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validateSchema(b []byte) error {
	yamlFile, err := cueyaml.Extract(configFileName, b)
	if err != nil {
		return err
	}
	yamlValue := cueCtx.BuildFile(yamlFile)
	if yamlValue.Err() != nil {
		return yamlValue.Err()
	}

	unified := schema.Unify(yamlValue)
	return unified.Validate(
		cue.All(),          // all constraints
		cue.Concrete(true), // no incomplete values
	)
}

func (c Config) Validate() error {
	var errs []error
	if c.Version != 0 {
		errs = append(errs, fmt.Errorf("config version %d is not supported, expected 0", c.Version))
	}
	if c.Worker.Interpreter == "" {
		errs = append(errs, errors.New("worker.interpreter is empty"))
	}
	if c.Worker.Entry == "" {
		errs = append(errs, errors.New("worker.entry is empty"))
	}
	if c.Worker.GracePeriod < 0 {
		errs = append(errs, errors.New("worker.grace_period is negative"))
	}
	if c.Worker.StopTimeout < 0 {
		errs = append(errs, errors.New("worker.stop_timeout is negative"))
	}
	switch c.Worker.Capture {
	case CaptureLog, CaptureHold:
	default:
		errs = append(errs, fmt.Errorf("worker.capture: possible values (%s,%s): got %q", CaptureLog, CaptureHold, c.Worker.Capture))
	}
	return errors.Join(errs...)
}

// Encode writes c as YAML.
func (c Config) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return err
	}
	return enc.Close()
}
