// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkf

import (
	"strconv"
	"strings"

	"github.com/gobuffalo/envy"
	"github.com/gobuffalo/packr"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// QueueFamilyPolicy decides which of several matching queue families
// is kept for graphics and presentation.
type QueueFamilyPolicy int

const (
	// LastMatch keeps the last matching family seen during the scan
	LastMatch QueueFamilyPolicy = iota
	// FirstMatch keeps the first matching family
	FirstMatch
)

func (p QueueFamilyPolicy) String() string {
	if p == FirstMatch {
		return "first"
	}
	return "last"
}

// Configuration of a Context
type Configuration struct {
	// ApplicationName is reported to the driver on instance creation
	ApplicationName string

	// EnableValidation turns on validation layers and the debug report callback
	EnableValidation bool

	// ValidationLayers requested when validation is enabled
	ValidationLayers []string

	// FatalErrors terminates the process on the first driver error
	FatalErrors bool

	QueueFamilyPolicy QueueFamilyPolicy

	// DescriptorPoolCapacity is the number of sets a single pool holds
	DescriptorPoolCapacity uint32

	// DescriptorsPerType is the per descriptor type quota of a single pool
	DescriptorsPerType uint32

	LogLevel string
}

const (
	keyAppName          = "KVF_APP_NAME"
	keyValidation       = "KVF_VALIDATION"
	keyValidationLayers = "KVF_VALIDATION_LAYERS"
	keyFatalErrors      = "KVF_FATAL_ERRORS"
	keyQueuePolicy      = "KVF_QUEUE_POLICY"
	keyPoolCapacity     = "KVF_POOL_CAPACITY"
	keyPoolDescriptors  = "KVF_POOL_DESCRIPTORS"
	keyLogLevel         = "KVF_LOG_LEVEL"
)

var configurationKeys = []string{
	keyAppName,
	keyValidation,
	keyValidationLayers,
	keyFatalErrors,
	keyQueuePolicy,
	keyPoolCapacity,
	keyPoolDescriptors,
	keyLogLevel,
}

// StaticResources holds files embedded into the package
var StaticResources = packr.NewBox("./resources")

// DefaultConfiguration returns the embedded defaults, untouched by the environment.
func DefaultConfiguration() Configuration {
	values, err := defaultValues()
	if err != nil {
		panic(err)
	}
	cfg, err := parseConfiguration(values)
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadConfiguration layers the embedded defaults, then every env file given
// in order, then the process environment.
func LoadConfiguration(files ...string) (Configuration, error) {
	values, err := defaultValues()
	if err != nil {
		return Configuration{}, err
	}

	for _, file := range files {
		overrides, err := godotenv.Read(file)
		if err != nil {
			return Configuration{}, errors.Wrapf(err, "godotenv.Read(%s)", file)
		}
		for k, v := range overrides {
			values[k] = v
		}
	}

	for _, key := range configurationKeys {
		values[key] = envy.Get(key, values[key])
	}
	return parseConfiguration(values)
}

func defaultValues() (map[string]string, error) {
	raw, err := StaticResources.FindString("defaults.env")
	if err != nil {
		return nil, errors.Wrap(err, "StaticResources.FindString(defaults.env)")
	}
	values, err := godotenv.Unmarshal(raw)
	if err != nil {
		return nil, errors.Wrap(err, "godotenv.Unmarshal(defaults.env)")
	}
	return values, nil
}

func parseConfiguration(values map[string]string) (Configuration, error) {
	cfg := Configuration{
		ApplicationName: values[keyAppName],
		LogLevel:        values[keyLogLevel],
	}

	var err error
	if cfg.EnableValidation, err = parseBool(values, keyValidation); err != nil {
		return cfg, err
	}
	if cfg.FatalErrors, err = parseBool(values, keyFatalErrors); err != nil {
		return cfg, err
	}
	if cfg.DescriptorPoolCapacity, err = parseUint32(values, keyPoolCapacity); err != nil {
		return cfg, err
	}
	if cfg.DescriptorsPerType, err = parseUint32(values, keyPoolDescriptors); err != nil {
		return cfg, err
	}
	if cfg.DescriptorPoolCapacity == 0 {
		return cfg, errors.Errorf("%s: pool capacity must be positive", keyPoolCapacity)
	}

	for _, layer := range strings.Split(values[keyValidationLayers], ",") {
		if layer = strings.TrimSpace(layer); layer != "" {
			cfg.ValidationLayers = append(cfg.ValidationLayers, layer)
		}
	}

	switch strings.ToLower(values[keyQueuePolicy]) {
	case "", "last":
		cfg.QueueFamilyPolicy = LastMatch
	case "first":
		cfg.QueueFamilyPolicy = FirstMatch
	default:
		return cfg, errors.Errorf("%s: unknown queue family policy %q", keyQueuePolicy, values[keyQueuePolicy])
	}
	return cfg, nil
}

func parseBool(values map[string]string, key string) (bool, error) {
	v, ok := values[key]
	if !ok || v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	return b, errors.Wrap(err, key)
}

func parseUint32(values map[string]string, key string) (uint32, error) {
	n, err := strconv.ParseUint(values[key], 10, 32)
	if err != nil {
		return 0, errors.Wrap(err, key)
	}
	return uint32(n), nil
}
