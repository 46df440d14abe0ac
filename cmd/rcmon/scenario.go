package main

import (
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/wippyai/sharedref"
	"github.com/wippyai/sharedref/guest"
)

// Scenario is a replayable sequence of handle operations. Scenarios are the
// scriptable face of the library: each step names handles by string, and
// the replay reports anything still owned when the steps run out.
type Scenario struct {
	Name   string `yaml:"name"`
	Memory uint32 `yaml:"memory"` // guest memory size; enables region steps
	Steps  []Step `yaml:"steps"`
}

// Step is a single operation. Op selects the operation; the other fields
// are operands and most ops only read a few of them.
type Step struct {
	Op     string `yaml:"op"`
	Handle string `yaml:"handle"`
	From   string `yaml:"from"`
	Value  int    `yaml:"value"`
	Size   uint32 `yaml:"size"`
	Align  uint32 `yaml:"align"`
	Count  int    `yaml:"count"`
}

type box struct {
	value int
}

// Report summarizes a replay: handles never released, weak promotions that
// found an expired target, and the library gauges before/after.
type Report struct {
	Scenario      string
	Steps         int
	LeakedStrong  []string
	LeakedWeak    []string
	LeakedRegions []string
	ValuesBefore  int64
	ValuesAfter   int64
	BlocksBefore  int64
	BlocksAfter   int64
}

// Leaked reports whether the scenario left anything alive.
func (r *Report) Leaked() bool {
	return len(r.LeakedStrong)+len(r.LeakedWeak)+len(r.LeakedRegions) > 0 ||
		r.ValuesAfter != r.ValuesBefore || r.BlocksAfter != r.BlocksBefore
}

// Print writes a human-readable report.
func (r *Report) Print(w io.Writer) {
	fmt.Fprintf(w, "Scenario: %s (%d steps)\n", r.Scenario, r.Steps)
	fmt.Fprintf(w, "Live values: %d -> %d\n", r.ValuesBefore, r.ValuesAfter)
	fmt.Fprintf(w, "Live blocks: %d -> %d\n", r.BlocksBefore, r.BlocksAfter)
	if !r.Leaked() {
		fmt.Fprintln(w, "No leaks.")
		return
	}
	for _, name := range r.LeakedStrong {
		fmt.Fprintf(w, "LEAK: strong handle %q never released\n", name)
	}
	for _, name := range r.LeakedWeak {
		fmt.Fprintf(w, "LEAK: weak handle %q never released\n", name)
	}
	for _, name := range r.LeakedRegions {
		fmt.Fprintf(w, "LEAK: region %q never released\n", name)
	}
}

// replayFile parses and replays a scenario from disk.
func replayFile(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	sc, err := parseScenario(data)
	if err != nil {
		return nil, err
	}
	return replay(sc)
}

func parseScenario(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	return &sc, nil
}

// replay runs every step and reports what is still owned afterwards.
// Leftover handles are released before returning so one leaky scenario
// does not poison the gauges for the next.
func replay(sc *Scenario) (*Report, error) {
	r := &Report{
		Scenario:     sc.Name,
		Steps:        len(sc.Steps),
		ValuesBefore: sharedref.LiveValues(),
		BlocksBefore: sharedref.LiveBlocks(),
	}

	strongs := map[string]sharedref.Strong[box]{}
	weaks := map[string]sharedref.Weak[box]{}
	regions := map[string]sharedref.Strong[guest.Region]{}

	var mem *guest.SliceMemory
	var alloc *guest.BumpAllocator
	if sc.Memory > 0 {
		mem = guest.NewSliceMemory(sc.Memory)
		alloc = guest.NewBumpAllocator(8, sc.Memory)
	}

	for i, step := range sc.Steps {
		if err := apply(step, strongs, weaks, regions, mem, alloc); err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, step.Op, err)
		}
	}

	for name := range strongs {
		r.LeakedStrong = append(r.LeakedStrong, name)
	}
	for name := range weaks {
		r.LeakedWeak = append(r.LeakedWeak, name)
	}
	for name := range regions {
		r.LeakedRegions = append(r.LeakedRegions, name)
	}
	sort.Strings(r.LeakedStrong)
	sort.Strings(r.LeakedWeak)
	sort.Strings(r.LeakedRegions)

	r.ValuesAfter = sharedref.LiveValues()
	r.BlocksAfter = sharedref.LiveBlocks()

	for name, h := range strongs {
		h.Release()
		delete(strongs, name)
	}
	for name, w := range weaks {
		w.Release()
		delete(weaks, name)
	}
	for name, h := range regions {
		h.Release()
		delete(regions, name)
	}

	return r, nil
}

func apply(
	step Step,
	strongs map[string]sharedref.Strong[box],
	weaks map[string]sharedref.Weak[box],
	regions map[string]sharedref.Strong[guest.Region],
	mem *guest.SliceMemory,
	alloc *guest.BumpAllocator,
) error {
	switch step.Op {
	case "make":
		if _, dup := strongs[step.Handle]; dup {
			return fmt.Errorf("handle %q already exists", step.Handle)
		}
		strongs[step.Handle] = sharedref.Make(box{value: step.Value})

	case "clone":
		src, ok := strongs[step.From]
		if !ok {
			return fmt.Errorf("unknown strong handle %q", step.From)
		}
		strongs[step.Handle] = src.Clone()

	case "weak":
		src, ok := strongs[step.From]
		if !ok {
			return fmt.Errorf("unknown strong handle %q", step.From)
		}
		weaks[step.Handle] = sharedref.WeakOf(src)

	case "lock":
		w, ok := weaks[step.From]
		if !ok {
			return fmt.Errorf("unknown weak handle %q", step.From)
		}
		s := w.Lock()
		if s.IsNil() {
			fmt.Printf("lock %q: target expired, handle %q stays empty\n", step.From, step.Handle)
			return nil
		}
		strongs[step.Handle] = s

	case "promote":
		w, ok := weaks[step.From]
		if !ok {
			return fmt.Errorf("unknown weak handle %q", step.From)
		}
		s, err := sharedref.FromWeak(w)
		if err != nil {
			return err
		}
		strongs[step.Handle] = s

	case "release":
		if s, ok := strongs[step.Handle]; ok {
			s.Release()
			delete(strongs, step.Handle)
			return nil
		}
		if w, ok := weaks[step.Handle]; ok {
			w.Release()
			delete(weaks, step.Handle)
			return nil
		}
		if h, ok := regions[step.Handle]; ok {
			h.Release()
			delete(regions, step.Handle)
			return nil
		}
		return fmt.Errorf("unknown handle %q", step.Handle)

	case "region":
		if mem == nil {
			return fmt.Errorf("scenario has no memory; set memory: <size>")
		}
		h, err := guest.New(mem, alloc, step.Size, step.Align)
		if err != nil {
			return err
		}
		regions[step.Handle] = h

	case "expect":
		s, ok := strongs[step.Handle]
		if !ok {
			return fmt.Errorf("unknown strong handle %q", step.Handle)
		}
		if got := s.UseCount(); got != step.Count {
			return fmt.Errorf("handle %q use count = %d, want %d", step.Handle, got, step.Count)
		}

	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}
	return nil
}
