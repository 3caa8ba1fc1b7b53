// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"encoding/json"
	"flag"
	"io"
	"os"

	"github.com/devblok/kvf/src/vkf"
	"github.com/pierrec/lz4"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var (
	envFile    = flag.String("env", "", "Env file layered over the default configuration")
	outputFile = flag.String("o", "", "Write the report into a file instead of stdout")
	compress   = flag.Bool("z", false, "Compress the report with lz4")
	indent     = flag.Bool("indent", false, "Indent the JSON report")
)

func main() {
	flag.Parse()

	var files []string
	if *envFile != "" {
		files = append(files, *envFile)
	}
	cfg, err := vkf.LoadConfiguration(files...)
	if err != nil {
		log.WithError(err).Fatal("configuration could not be loaded")
	}

	driver, err := vkf.NewVulkanDriver(nil)
	if err != nil {
		log.WithError(err).Fatal("vulkan is not available")
	}

	ctx := vkf.NewContext(driver, cfg, nil)
	defer ctx.Release()

	instance, err := ctx.CreateInstance(nil)
	if err != nil {
		log.WithError(err).Fatal("instance could not be created")
	}
	defer ctx.DestroyInstance(instance)

	infos, err := ctx.PhysicalDevicesInfo(instance)
	if err != nil {
		log.WithError(err).Fatal("physical devices could not be listed")
	}

	if err := writeReport(*outputFile, infos, *compress, *indent); err != nil {
		log.WithError(err).Fatal("report could not be written")
	}
}

// writeReport writes the report to path, or to stdout when path is empty.
func writeReport(path string, infos []vkf.PhysicalDeviceInfo, compress, indent bool) (err error) {
	if path == "" {
		return encodeReport(os.Stdout, infos, compress, indent)
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "report file could not be created")
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = errors.Wrap(cerr, "report file could not be closed")
		}
	}()
	return encodeReport(f, infos, compress, indent)
}

// encodeReport encodes infos as JSON into out. A compressed report is only
// complete once the lz4 frame is closed, so the close error is returned.
func encodeReport(out io.Writer, infos []vkf.PhysicalDeviceInfo, compress, indent bool) error {
	var zw *lz4.Writer
	if compress {
		zw = lz4.NewWriter(out)
		out = zw
	}

	encoder := json.NewEncoder(out)
	if indent {
		encoder.SetIndent("", "  ")
	}
	if err := encoder.Encode(infos); err != nil {
		if zw != nil {
			zw.Close()
		}
		return errors.Wrap(err, "report could not be encoded")
	}
	if zw != nil {
		if err := zw.Close(); err != nil {
			return errors.Wrap(err, "lz4 frame could not be closed")
		}
	}
	return nil
}
