//go:build ignore

// build.go - Financial Health Console build system
// Usage: go run build.go [-target=TARGET]
// Targets: console, test, e2e, clean, release

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
)

const (
	module      = "finhealth"
	versionPkg  = module + "/pkg/contracts"
	consoleName = "finhealth-console"
)

// BuildContext holds configuration for the build process
type BuildContext struct {
	Verbose bool
	GOOS    string
	GOARCH  string
}

var (
	rootDir string
	distDir string

	// Colors for terminal output
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
)

func init() {
	cwd, err := os.Getwd()
	if err != nil {
		panic(fmt.Sprintf("Failed to get current directory: %v", err))
	}
	rootDir = cwd
	distDir = filepath.Join(rootDir, "dist")

	if _, err := os.Stat(filepath.Join(rootDir, "go.mod")); os.IsNotExist(err) {
		panic(fmt.Sprintf("go.mod not found in %s. Run the build from the repository root.", rootDir))
	}
}

func main() {
	target := flag.String("target", "console", "Build target")
	verbose := flag.Bool("v", false, "Verbose output")
	goos := flag.String("os", runtime.GOOS, "Target operating system for release builds")
	goarch := flag.String("arch", runtime.GOARCH, "Target architecture for release builds")
	flag.Parse()

	printHeader()
	startTime := time.Now()

	ctx := &BuildContext{
		Verbose: *verbose,
		GOOS:    *goos,
		GOARCH:  *goarch,
	}

	switch *target {
	case "console":
		buildConsole(ctx, false)
	case "test":
		runTests(ctx.Verbose)
	case "e2e":
		runE2E(ctx.Verbose)
	case "clean":
		clean(ctx.Verbose)
	case "release":
		buildRelease(ctx)
	default:
		showHelp()
		os.Exit(1)
	}

	printSuccess(fmt.Sprintf("Build completed in %s", time.Since(startTime).Round(time.Millisecond)))
}

func printHeader() {
	fmt.Println(colorCyan + "===========================================" + colorReset)
	fmt.Println(colorCyan + "   Financial Health Console - Build System  " + colorReset)
	fmt.Println(colorCyan + "===========================================" + colorReset)
	fmt.Println()
}

func printInfo(msg string) {
	fmt.Printf("%s[INFO]%s %s\n", colorBlue, colorReset, msg)
}

func printSuccess(msg string) {
	fmt.Printf("%s[SUCCESS]%s %s\n", colorGreen, colorReset, msg)
}

func printError(msg string) {
	fmt.Printf("%s[ERROR]%s %s\n", colorRed, colorReset, msg)
}

func printWarning(msg string) {
	fmt.Printf("%s[WARNING]%s %s\n", colorYellow, colorReset, msg)
}

// gitCommit returns the short commit hash, or "unknown" outside a git checkout
func gitCommit() string {
	out, err := exec.Command("git", "rev-parse", "--short", "HEAD").Output()
	if err != nil {
		return "unknown"
	}
	return strings.TrimSpace(string(out))
}

// buildConsole compiles cmd/console with version information stamped into pkg/contracts
func buildConsole(ctx *BuildContext, release bool) {
	printInfo("Building console...")

	exeName := consoleName
	if ctx.GOOS == "windows" {
		exeName += ".exe"
	}
	outputPath := filepath.Join(distDir, exeName)

	ldflags := fmt.Sprintf("-X %s.BuildTime=%s -X %s.GitCommit=%s",
		versionPkg, time.Now().UTC().Format(time.RFC3339),
		versionPkg, gitCommit())
	if release {
		ldflags = "-s -w " + ldflags
	}

	args := []string{"build"}
	if ctx.Verbose {
		args = append(args, "-v")
	}
	args = append(args, "-ldflags", ldflags, "-o", outputPath, "./cmd/console")

	cmd := exec.Command("go", args...)
	cmd.Dir = rootDir
	cmd.Env = append(os.Environ(), "GOOS="+ctx.GOOS, "GOARCH="+ctx.GOARCH)
	if release {
		cmd.Env = append(cmd.Env, "CGO_ENABLED=0")
	}

	if ctx.Verbose {
		fmt.Printf("Running: go %s\n", strings.Join(args, " "))
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}

	if err := cmd.Run(); err != nil {
		printError(fmt.Sprintf("Failed to build console: %v", err))
		os.Exit(1)
	}

	if info, err := os.Stat(outputPath); err == nil {
		sizeMB := float64(info.Size()) / 1024 / 1024
		printSuccess(fmt.Sprintf("Built %s (%.1f MB)", exeName, sizeMB))
	}
}

// runTests runs the unit tests with the race detector
func runTests(verbose bool) {
	printInfo("Running Go tests...")
	args := []string{"test", "-race"}
	if verbose {
		args = append(args, "-v")
	}
	args = append(args, "./...")

	if err := runGo(args...); err != nil {
		printError(fmt.Sprintf("Go tests failed: %v", err))
		os.Exit(1)
	}
	printSuccess("All tests passed")
}

// runE2E runs the browser tests, which need a local Chrome
func runE2E(verbose bool) {
	printInfo("Running browser tests...")
	args := []string{"test", "-tags", "e2e", "-run", "TestE2E"}
	if verbose {
		args = append(args, "-v")
	}
	args = append(args, "./internal/app/...")

	if err := runGo(args...); err != nil {
		printError(fmt.Sprintf("Browser tests failed: %v", err))
		os.Exit(1)
	}
	printSuccess("Browser tests passed")
}

func runGo(args ...string) error {
	cmd := exec.Command("go", args...)
	cmd.Dir = rootDir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// clean removes build artifacts and log files
func clean(verbose bool) {
	printInfo("Cleaning build artifacts and logs...")

	for _, dir := range []string{distDir, filepath.Join(rootDir, "logs")} {
		if err := os.RemoveAll(dir); err != nil && !os.IsNotExist(err) {
			printError(fmt.Sprintf("Failed to clean %s: %v", dir, err))
			continue
		}
		if verbose {
			printInfo(fmt.Sprintf("Removed %s", dir))
		}
	}

	printSuccess("Build artifacts cleaned")
}

// buildRelease builds a stripped binary and writes a VERSION.txt next to it
func buildRelease(ctx *BuildContext) {
	printInfo(fmt.Sprintf("Building release for %s/%s...", ctx.GOOS, ctx.GOARCH))
	clean(ctx.Verbose)

	if err := os.MkdirAll(distDir, 0755); err != nil {
		printError(fmt.Sprintf("Failed to create dist directory: %v", err))
		os.Exit(1)
	}

	buildConsole(ctx, true)

	if _, err := os.Stat(filepath.Join(rootDir, "config.yaml")); err == nil {
		if err := copyFile(filepath.Join(rootDir, "config.yaml"), filepath.Join(distDir, "config.yaml")); err != nil {
			printWarning(fmt.Sprintf("Failed to copy config.yaml: %v", err))
		}
	}

	versionFile := filepath.Join(distDir, "VERSION.txt")
	content := fmt.Sprintf("Financial Health Console\nCommit: %s\nBuilt: %s\nTarget: %s/%s\n",
		gitCommit(), time.Now().Format("2006-01-02 15:04:05"), ctx.GOOS, ctx.GOARCH)
	if err := os.WriteFile(versionFile, []byte(content), 0644); err != nil {
		printWarning(fmt.Sprintf("Failed to write VERSION.txt: %v", err))
	}

	printSuccess("Release build completed")
}

func copyFile(src, dest string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dest, data, 0644)
}

func showHelp() {
	fmt.Println("Usage: go run build.go [-target=TARGET] [-v] [-os=GOOS] [-arch=GOARCH]")
	fmt.Println()
	fmt.Println("Targets:")
	fmt.Println("  console           Build the console server (default)")
	fmt.Println("  test              Run all Go tests with -race")
	fmt.Println("  e2e               Run the headless browser tests")
	fmt.Println("  clean             Remove dist/ and logs/")
	fmt.Println("  release           Build a stripped release binary into dist/")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -v                Verbose output")
	fmt.Println("  -os, -arch        Cross-compile target for release builds")
}
