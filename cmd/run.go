/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/oceanacoustics/gobellhop/envfile"
	"github.com/oceanacoustics/gobellhop/internal/bellhop/engine"
	"github.com/oceanacoustics/gobellhop/internal/bellhop/params"
	"github.com/oceanacoustics/gobellhop/plotting"
)

// RunCmd represents the run command, the CLI surface of spec.md section 6.2.
var RunCmd = &cobra.Command{
	Use:   "run FileRoot",
	Short: "Trace a ray/beam fan described by FileRoot.env and its neighbors",
	Long: `run reads FileRoot.env (and its .ssp/.bty/.ati/.brc/.trc neighbors),
traces the configured ray or beam fan, and writes FileRoot.ray, .shd, or .arr
depending on the run mode selected in the environment file.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		os.Exit(runMain(cmd, args[0]))
	},
}

func init() {
	rootCmd.AddCommand(RunCmd)
	RunCmd.Flags().Bool("1", false, "force worker count to 1")
	RunCmd.Flags().Bool("singlethread", false, "force worker count to 1")
	RunCmd.Flags().Bool("2", false, "select 2D mode")
	RunCmd.Flags().Bool("2D", false, "select 2D mode")
	RunCmd.Flags().Bool("Nx2D", false, "select Nx2D mode")
	RunCmd.Flags().Bool("2D3D", false, "select Nx2D mode")
	RunCmd.Flags().Bool("2.5D", false, "select Nx2D mode")
	RunCmd.Flags().Bool("4", false, "select Nx2D mode")
	RunCmd.Flags().Bool("3", false, "select 3D mode")
	RunCmd.Flags().Bool("3D", false, "select 3D mode")
	RunCmd.Flags().Int("gpu", -1, "select GPU index (GPU build; unsupported here, logged and ignored)")
	RunCmd.Flags().String("mem", "", "set maxMemory, e.g. 64M, 2Gi")
	RunCmd.Flags().Bool("graph", false, "display a ray-fan plot after running")
	RunCmd.Flags().String("cpuprofile", "", "write a CPU profile to this directory")
}

// runMain is Run's exit-code-returning body, factored out so tests can call
// it without going through os.Exit.
func runMain(cmd *cobra.Command, fileRoot string) int {
	flags := cmd.Flags()

	if cpuDir, _ := flags.GetString("cpuprofile"); cpuDir != "" {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(cpuDir)).Stop()
	}

	dimOverride, hasDim := resolveDimOverride(flags)
	singleThread, _ := flags.GetBool("1")
	if st, _ := flags.GetBool("singlethread"); st {
		singleThread = true
	}
	gpuIdx, _ := flags.GetInt("gpu")
	memStr, _ := flags.GetString("mem")
	if memStr == "" {
		memStr = viper.GetString("MEM")
	}
	graph, _ := flags.GetBool("graph")

	logSink := func(msg string) { fmt.Fprintln(os.Stdout, msg) }

	p, out, ok := engine.Setup(fileRoot, logSink)
	if !ok || p == nil {
		logSink(fmt.Sprintf("setup failed for %s", fileRoot))
		return 1
	}

	if hasDim {
		p.Dim = dimOverride
	}
	if singleThread {
		p.NumWorkers = 1
	} else if w := viper.GetInt("WORKERS"); w > 0 {
		p.NumWorkers = w
	}
	if memStr != "" {
		if mb, err := overrideMem(memStr); err == nil {
			p.MaxMemory = mb
			p.Budget = params.NewMemoryBudget(mb)
		}
	}
	if gpuIdx >= 0 {
		logSink(fmt.Sprintf("gpu index %d requested; no GPU build in this binary, running on CPU", gpuIdx))
	}

	defer engine.Finalize(p, out)

	if !engine.Run(p, out) {
		logSink("run failed")
		return 1
	}

	if !engine.Writeout(p, out, fileRoot) {
		logSink("writeout failed")
		return 1
	}

	if graph {
		if err := plotting.PlotRays(fileRoot, p, out); err != nil {
			logSink(fmt.Sprintf("plotting failed: %s", err.Error()))
		}
	}

	return 0
}

// resolveDimOverride maps the section 6.2 dimensionality flag aliases onto
// params.Dimensionality; ok is false when none of the aliases were set, in
// which case the environment file's own dimensionality is left untouched.
func resolveDimOverride(flags *pflag.FlagSet) (params.Dimensionality, bool) {
	get := func(name string) bool {
		v, _ := flags.GetBool(name)
		return v
	}
	switch {
	case get("2") || get("2D"):
		return params.Dim2D, true
	case get("Nx2D") || get("2D3D") || get("2.5D") || get("4"):
		return params.DimNx2D, true
	case get("3") || get("3D"):
		return params.Dim3D, true
	}
	return params.Dim2D, false
}

// overrideMem re-uses the envfile loader's --mem grammar for the CLI flag.
func overrideMem(s string) (int64, error) {
	return envfile.ParseMemSize(s)
}
