package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/san-kum/mdbridge/internal/bridge"
	"github.com/san-kum/mdbridge/internal/md"
	"github.com/san-kum/mdbridge/internal/sampling"
	"github.com/san-kum/mdbridge/internal/tui"
)

type summary struct {
	title     string
	mode      bridge.Mode
	method    string
	snapshots int
	elapsed   time.Duration
	metrics   map[string]float64
	cvStats   []sampling.CVStat
	restart   md.State
	final     md.State
	postSteps int
}

func renderSummary(s summary) string {
	var b strings.Builder

	b.WriteString(tui.Title.Render(s.title))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s\n\n", tui.Subtle.Render(fmt.Sprintf("%s · %s · %d snapshots", s.mode, s.method, s.snapshots)))

	if s.elapsed > 0 {
		fmt.Fprintf(&b, "%s\n", tui.Subtle.Render("sampled in "+s.elapsed.Round(time.Millisecond).String()))
	}

	names := make([]string, 0, len(s.metrics))
	for name := range s.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		b.WriteString(tui.Metric(name, s.metrics[name]))
		b.WriteString("\n")
	}

	for _, st := range s.cvStats {
		fmt.Fprintf(&b, "%s  %s\n",
			tui.Metric(st.Name, st.Mean),
			tui.Subtle.Render(fmt.Sprintf("± %.4f [%.4f, %.4f]", st.Std, st.Min, st.Max)))
	}

	b.WriteString(tui.Separator(44))
	b.WriteString("\n")
	b.WriteString(tui.Metric("T restart", md.Temperature(s.restart)))
	b.WriteString("\n")
	b.WriteString(tui.Metric(fmt.Sprintf("T +%d", s.postSteps), md.Temperature(s.final)))

	return tui.Panel.Render(b.String())
}
