// Package junit reads surefire-style JUnit XML reports and classifies test
// outcomes between a defect-seeded build and clean baseline builds. The
// classification answers whether the existing suite would have caught each
// seeded defect without any LLM involvement.
package junit

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"faultbench/internal/logging"
)

// TestCase is one executed test from a report.
type TestCase struct {
	Class   string
	Name    string
	Failed  bool // failure or error child present
	Skipped bool
	Message string
}

// ID returns the raw "classname#name" identifier.
func (c TestCase) ID() string {
	return c.Class + "#" + c.Name
}

// Suite is one TEST-*.xml file.
type Suite struct {
	Name  string
	Cases []TestCase
}

// xml wire structures for the surefire report format.
type xmlSuite struct {
	XMLName xml.Name  `xml:"testsuite"`
	Name    string    `xml:"name,attr"`
	Cases   []xmlCase `xml:"testcase"`
}

type xmlCase struct {
	Class   string      `xml:"classname,attr"`
	Name    string      `xml:"name,attr"`
	Failure *xmlFailure `xml:"failure"`
	Error   *xmlFailure `xml:"error"`
	Skipped *struct{}   `xml:"skipped"`
}

type xmlFailure struct {
	Message string `xml:"message,attr"`
}

// ParseFile reads one JUnit XML report.
func ParseFile(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read junit report: %w", err)
	}
	var xs xmlSuite
	if err := xml.Unmarshal(data, &xs); err != nil {
		return nil, fmt.Errorf("parse junit report %s: %w", path, err)
	}

	suite := &Suite{Name: xs.Name}
	for _, c := range xs.Cases {
		tc := TestCase{
			Class:   c.Class,
			Name:    c.Name,
			Failed:  c.Failure != nil || c.Error != nil,
			Skipped: c.Skipped != nil,
		}
		if c.Failure != nil {
			tc.Message = c.Failure.Message
		} else if c.Error != nil {
			tc.Message = c.Error.Message
		}
		suite.Cases = append(suite.Cases, tc)
	}
	return suite, nil
}

// ParseDir reads every TEST-*.xml under dir (recursively). Unreadable
// reports are skipped with a warning.
func ParseDir(dir string) ([]Suite, error) {
	logger := logging.New("junit")

	var suites []Suite
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasPrefix(d.Name(), "TEST-") || !strings.HasSuffix(d.Name(), ".xml") {
			return nil
		}
		s, err := ParseFile(path)
		if err != nil {
			logger.Warn("skipping report", "path", path, "error", err)
			return nil
		}
		suites = append(suites, *s)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk junit reports: %w", err)
	}
	return suites, nil
}

var (
	bracketParams = regexp.MustCompile(`\[.*\]`)
	parenParams   = regexp.MustCompile(`\(.*\)`)
	indexPrefix   = regexp.MustCompile(`^\d+:\s*`)
)

// NormalizeName collapses parameterized and repeated executions of the same
// logical test into one name: "check[2: x=5]" and "check[7: x=9]" both
// become "check".
func NormalizeName(name string) string {
	if i := strings.Index(name, "→"); i >= 0 {
		name = name[:i]
	}
	name = bracketParams.ReplaceAllString(name, "")
	name = parenParams.ReplaceAllString(name, "")
	name = indexPrefix.ReplaceAllString(name, "")
	return strings.TrimSpace(name)
}

// Results folds suites into logical outcomes: a logical test failed if any
// of its executions failed. Skipped executions carry no signal and are
// dropped unless they are the only record of the test.
func Results(suites []Suite) map[string]bool {
	failed := make(map[string]bool)
	seen := make(map[string]bool)
	for _, s := range suites {
		for _, c := range s.Cases {
			key := c.Class + "#" + NormalizeName(c.Name)
			if c.Skipped {
				if !seen[key] {
					seen[key] = true
				}
				continue
			}
			seen[key] = true
			if c.Failed {
				failed[key] = true
			}
		}
	}
	out := make(map[string]bool, len(seen))
	for key := range seen {
		out[key] = failed[key]
	}
	return out
}

// Classification partitions the buggy build's tests by their differential
// behavior against the clean baselines.
type Classification struct {
	// Detected failed on the buggy build and passed on every clean run:
	// the suite catches the defect.
	Detected []string `json:"detected"`
	// Flaky failed on the buggy build but also on some clean run; the
	// failure proves nothing.
	Flaky []string `json:"flaky"`
	// Escaped passed on the buggy build: the defect slipped through.
	Escaped []string `json:"escaped"`
	// Regressions passed on the buggy build but failed on a clean run;
	// the baseline itself is suspect.
	Regressions []string `json:"regressions"`
	// NoBaseline failed on the buggy build with no clean record to
	// compare against.
	NoBaseline []string `json:"no_baseline"`
}

// Classify compares one buggy build against any number of clean baseline
// runs. Maps are logical-name -> failed, as produced by Results.
func Classify(buggy map[string]bool, cleans []map[string]bool) Classification {
	cleanSeen := func(name string) bool {
		for _, c := range cleans {
			if _, ok := c[name]; ok {
				return true
			}
		}
		return false
	}
	cleanPassedAll := func(name string) bool {
		for _, c := range cleans {
			if failed, ok := c[name]; ok && failed {
				return false
			}
		}
		return true
	}

	var out Classification
	names := make([]string, 0, len(buggy))
	for name := range buggy {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		failedOnBuggy := buggy[name]
		switch {
		case failedOnBuggy && !cleanSeen(name):
			out.NoBaseline = append(out.NoBaseline, name)
		case failedOnBuggy && cleanPassedAll(name):
			out.Detected = append(out.Detected, name)
		case failedOnBuggy:
			out.Flaky = append(out.Flaky, name)
		case !cleanPassedAll(name):
			out.Regressions = append(out.Regressions, name)
		default:
			out.Escaped = append(out.Escaped, name)
		}
	}
	return out
}
