package main

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/klauspost/cpuid/v2"
	"github.com/spf13/cobra"

	"github.com/hupe1980/vamana/blobstore"
	"github.com/hupe1980/vamana/internal/simd"
	"github.com/hupe1980/vamana/persistence"
)

type cpuInfo struct {
	Brand      string   `json:"brand"`
	Arch       string   `json:"arch"`
	Cores      int      `json:"physical_cores"`
	Threads    int      `json:"logical_cores"`
	Features   []string `json:"features"`
	ISA        string   `json:"simd_isa"`
	Overridden bool     `json:"simd_overridden"`
}

type snapshotInfo struct {
	Path        string  `json:"path"`
	Size        int64   `json:"size"`
	DType       string  `json:"dtype"`
	Metric      string  `json:"metric"`
	Dim         uint32  `json:"dim"`
	MaxPoints   uint32  `json:"max_points"`
	Live        uint32  `json:"live"`
	Tombstoned  uint32  `json:"tombstoned"`
	Degree      uint32  `json:"graph_degree"`
	Complexity  uint32  `json:"complexity"`
	Alpha       float32 `json:"alpha"`
	Frozen      uint32  `json:"frozen_points"`
	Compression string  `json:"compression"`
	Blocks      uint32  `json:"blocks"`
	Payload     uint64  `json:"payload_bytes"`
}

type infoOutput struct {
	CPU      cpuInfo       `json:"cpu"`
	Snapshot *snapshotInfo `json:"snapshot,omitempty"`
}

func newInfoCmd(g *globalFlags) *cobra.Command {
	var index string
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show CPU capabilities and snapshot metadata",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := infoOutput{CPU: detectCPU()}
			if index != "" {
				s, err := inspectSnapshot(cmd, index)
				if err != nil {
					return err
				}
				out.Snapshot = s
			}
			return printResult(g.json, out, formatInfo(out))
		},
	}
	cmd.Flags().StringVarP(&index, "index", "i", "", "snapshot to inspect")
	return cmd
}

func detectCPU() cpuInfo {
	var features []string
	for _, f := range []cpuid.FeatureID{cpuid.SSE4, cpuid.AVX, cpuid.AVX2, cpuid.FMA3, cpuid.F16C, cpuid.AVX512F, cpuid.AVX512BW, cpuid.ASIMD, cpuid.SVE} {
		if cpuid.CPU.Has(f) {
			features = append(features, f.String())
		}
	}
	return cpuInfo{
		Brand:      cpuid.CPU.BrandName,
		Arch:       runtime.GOARCH,
		Cores:      cpuid.CPU.PhysicalCores,
		Threads:    cpuid.CPU.LogicalCores,
		Features:   features,
		ISA:        simd.ActiveISA().String(),
		Overridden: simd.Overridden(),
	}
}

func inspectSnapshot(cmd *cobra.Command, path string) (*snapshotInfo, error) {
	dir, name := splitPath(path)
	info, err := persistence.Inspect(cmd.Context(), blobstore.NewLocalStore(dir), name)
	if err != nil {
		return nil, err
	}
	h := info.Header
	return &snapshotInfo{
		Path:        path,
		Size:        info.Size,
		DType:       h.DType.String(),
		Metric:      h.Params().Metric.String(),
		Dim:         h.Dim,
		MaxPoints:   h.MaxPoints,
		Live:        h.Live,
		Tombstoned:  h.Tombstoned,
		Degree:      h.GraphDegree,
		Complexity:  h.Complexity,
		Alpha:       h.Alpha,
		Frozen:      h.NumFrozenPoints,
		Compression: h.Compression.String(),
		Blocks:      info.Footer.Blocks,
		Payload:     info.Footer.PayloadSize,
	}, nil
}

func formatInfo(o infoOutput) string {
	var b strings.Builder
	c := o.CPU
	fmt.Fprintf(&b, "cpu:       %s (%s, %d cores / %d threads)\n", c.Brand, c.Arch, c.Cores, c.Threads)
	fmt.Fprintf(&b, "features:  %s\n", strings.Join(c.Features, " "))
	isa := c.ISA
	if c.Overridden {
		isa += " (VAMANA_SIMD)"
	}
	fmt.Fprintf(&b, "simd:      %s", isa)
	if s := o.Snapshot; s != nil {
		fmt.Fprintf(&b, "\nsnapshot:  %s (%d bytes, %s, %d blocks)\n", s.Path, s.Size, s.Compression, s.Blocks)
		fmt.Fprintf(&b, "vectors:   %s x %d, metric %s\n", s.DType, s.Dim, s.Metric)
		fmt.Fprintf(&b, "points:    %d live, %d tombstoned, capacity %d\n", s.Live, s.Tombstoned, s.MaxPoints)
		fmt.Fprintf(&b, "graph:     R=%d L=%d alpha=%.2f frozen=%d", s.Degree, s.Complexity, s.Alpha, s.Frozen)
	}
	return b.String()
}
