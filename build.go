//go:build ignore

// build.go - Dropout Lens build system
// Usage: go run build.go [-target=TARGET] [-v]
// Targets: all, dashboard, clusterreport, test, release, clean

package main

import (
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/fatih/color"
)

const module = "dropoutlens"

// executables maps each cmd/ directory to its output name
var executables = map[string]string{
	"dashboard":     "dropoutlens",
	"clusterreport": "clusterreport",
}

// releasePlatforms are the GOOS/GOARCH pairs built by the release target
var releasePlatforms = [][2]string{
	{"linux", "amd64"},
	{"linux", "arm64"},
	{"darwin", "arm64"},
	{"windows", "amd64"},
}

const distDir = "dist"

type buildContext struct {
	verbose bool
	goos    string
	goarch  string
	outDir  string
}

var (
	info    = color.New(color.FgBlue).SprintFunc()
	success = color.New(color.FgGreen).SprintFunc()
	failure = color.New(color.FgRed).SprintFunc()
)

func main() {
	target := flag.String("target", "all", "Build target")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	color.New(color.FgCyan, color.Bold).Println("Dropout Lens - Build System")

	start := time.Now()
	ctx := &buildContext{
		verbose: *verbose,
		goos:    runtime.GOOS,
		goarch:  runtime.GOARCH,
		outDir:  distDir,
	}

	var err error
	switch *target {
	case "all":
		err = buildAll(ctx)
	case "dashboard", "clusterreport":
		err = buildExecutable(*target, ctx)
	case "test":
		err = runTests(ctx)
	case "release":
		err = buildRelease(ctx)
	case "clean":
		err = os.RemoveAll(distDir)
	default:
		showHelp()
		os.Exit(1)
	}
	if err != nil {
		fmt.Println(failure("[ERROR]"), err)
		os.Exit(1)
	}

	fmt.Println(success("[SUCCESS]"), fmt.Sprintf("Build completed in %s", time.Since(start).Round(time.Millisecond)))
}

func buildAll(ctx *buildContext) error {
	for name := range executables {
		if err := buildExecutable(name, ctx); err != nil {
			return err
		}
	}
	return nil
}

func buildExecutable(name string, ctx *buildContext) error {
	fmt.Println(info("[INFO]"), fmt.Sprintf("Building %s for %s/%s...", name, ctx.goos, ctx.goarch))

	exeName := executables[name]
	if ctx.goos == "windows" {
		exeName += ".exe"
	}
	outputPath := filepath.Join(ctx.outDir, exeName)

	args := []string{"build", "-trimpath", "-ldflags", ldflags(), "-o", outputPath}
	if ctx.verbose {
		args = append(args, "-v")
	}
	args = append(args, "./cmd/"+name)

	cmd := exec.Command("go", args...)
	cmd.Env = append(os.Environ(), "GOOS="+ctx.goos, "GOARCH="+ctx.goarch, "CGO_ENABLED=0")
	cmd.Stderr = os.Stderr
	if ctx.verbose {
		fmt.Printf("go %s\n", strings.Join(args, " "))
		cmd.Stdout = os.Stdout
	}
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to build %s: %w", name, err)
	}

	if st, err := os.Stat(outputPath); err == nil {
		fmt.Println(success("[SUCCESS]"), fmt.Sprintf("Built %s (%.1f MB)", outputPath, float64(st.Size())/1024/1024))
	}
	return nil
}

func buildRelease(ctx *buildContext) error {
	for _, p := range releasePlatforms {
		release := *ctx
		release.goos, release.goarch = p[0], p[1]
		release.outDir = filepath.Join(distDir, p[0]+"-"+p[1])
		if err := buildAll(&release); err != nil {
			return err
		}
	}
	return nil
}

func runTests(ctx *buildContext) error {
	fmt.Println(info("[INFO]"), "Running tests...")

	args := []string{"test", "-race", "./..."}
	if ctx.verbose {
		args = append(args, "-v")
	}
	cmd := exec.Command("go", args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// ldflags stamps the build time and git commit into pkg/contracts
func ldflags() string {
	commit := "unknown"
	if out, err := exec.Command("git", "rev-parse", "--short", "HEAD").Output(); err == nil {
		commit = strings.TrimSpace(string(out))
	}
	pkg := module + "/pkg/contracts"
	return fmt.Sprintf("-s -w -X %s.BuildTime=%s -X %s.GitCommit=%s",
		pkg, time.Now().UTC().Format(time.RFC3339), pkg, commit)
}

func showHelp() {
	fmt.Println("Usage: go run build.go -target=TARGET [-v]")
	fmt.Println()
	fmt.Println("Targets:")
	fmt.Println("  all            Build dashboard and clusterreport")
	fmt.Println("  dashboard      Build the web dashboard")
	fmt.Println("  clusterreport  Build the terminal report")
	fmt.Println("  test           Run all tests with the race detector")
	fmt.Println("  release        Cross-compile every binary into dist/<os>-<arch>")
	fmt.Println("  clean          Remove dist/")
}
