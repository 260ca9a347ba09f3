package main

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/hujh08/imfit/internal/config"
)

// Keywords understood in the option section of a configuration file
const (
	kZeroPoint = "ZERO_POINT"
	kDataFile  = "DATA_FILE"
	kNPoints   = "NPOINTS"
	kNCols1    = "NCOLS"
	kNCols2    = "NCOLUMNS"
	kXMin      = "X_MIN"
	kXMax      = "X_MAX"
)

// modelOptions are the settings a configuration file may carry in its option
// section. Command-line flags take precedence over the file.
type modelOptions struct {
	ZeroPoint float64
	DataFile  string
	NPoints   int
	XMin      float64
	XMax      float64

	zeroPointSet bool
	xMinSet      bool
	xMaxSet      bool
	nPointsSet   bool
	dataFileSet  bool
}

// applyConfigOptions fills every field not already set by a flag from the
// file's option section; a keyword repeated in the file keeps its last value.
// Unknown keywords are logged and ignored.
func applyConfigOptions(spec *config.ParsedModelSpec, mo *modelOptions) error {
	byFlag := *mo
	for _, opt := range spec.Options {
		switch opt.Name {
		case kZeroPoint:
			if byFlag.zeroPointSet {
				continue
			}
			v, err := parseOptionFloat(opt)
			if err != nil {
				return err
			}
			mo.ZeroPoint, mo.zeroPointSet = v, true
		case kDataFile:
			if !byFlag.dataFileSet {
				mo.DataFile, mo.dataFileSet = opt.Value, true
			}
		case kNPoints, kNCols1, kNCols2:
			if byFlag.nPointsSet {
				continue
			}
			n, err := strconv.Atoi(opt.Value)
			if err != nil || n <= 0 {
				return fmt.Errorf("line %d: %s should be a positive integer, got %q", opt.Line, opt.Name, opt.Value)
			}
			mo.NPoints, mo.nPointsSet = n, true
		case kXMin:
			if byFlag.xMinSet {
				continue
			}
			v, err := parseOptionFloat(opt)
			if err != nil {
				return err
			}
			mo.XMin, mo.xMinSet = v, true
		case kXMax:
			if byFlag.xMaxSet {
				continue
			}
			v, err := parseOptionFloat(opt)
			if err != nil {
				return err
			}
			mo.XMax, mo.xMaxSet = v, true
		default:
			slog.Warn("Unknown keyword in config file ignored", "keyword", opt.Name, "line", opt.Line)
		}
	}

	if mo.xMinSet && mo.xMaxSet && mo.XMin >= mo.XMax {
		return fmt.Errorf("%s (%g) must be less than %s (%g)", kXMin, mo.XMin, kXMax, mo.XMax)
	}
	return nil
}

func parseOptionFloat(opt config.GlobalOption) (float64, error) {
	v, err := strconv.ParseFloat(opt.Value, 64)
	if err != nil {
		return 0, fmt.Errorf("line %d: %s should be a number, got %q", opt.Line, opt.Name, opt.Value)
	}
	return v, nil
}
