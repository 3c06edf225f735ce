//go:build ignore

package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/muurk/devscan/internal/discovery"
	"github.com/muurk/devscan/internal/protocol"
)

// Statistics tracks validation results
type Statistics struct {
	TotalTelegrams int
	TotalFiles     int
	Accepted       int
	Rejected       int
	Errors         map[string]int
	DeviceTypes    map[string]int
	Devices        map[string]bool
	Failed         []FailedTelegram
}

// FailedTelegram stores information about a rejected telegram
type FailedTelegram struct {
	File       string
	LineNumber int
	Error      string
	Payload    string
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: validate_announcements <directory-or-file>")
		fmt.Println("Each line of a capture file is one announce telegram.")
		fmt.Println("Example: validate_announcements captures/")
		fmt.Println("         validate_announcements lab-20260301.txt")
		os.Exit(1)
	}

	path := os.Args[1]
	stats := Statistics{
		Errors:      make(map[string]int),
		DeviceTypes: make(map[string]int),
		Devices:     make(map[string]bool),
	}

	info, err := os.Stat(path)
	if err != nil {
		fmt.Printf("Error accessing path: %v\n", err)
		os.Exit(1)
	}

	files := []string{path}
	if info.IsDir() {
		files, err = filepath.Glob(filepath.Join(path, "*.txt"))
		if err != nil || len(files) == 0 {
			fmt.Printf("No capture files found in %s\n", path)
			os.Exit(1)
		}
	}

	fmt.Printf("=== Announcement Validator ===\n")
	fmt.Printf("Files to process: %d\n\n", len(files))

	for _, file := range files {
		processFile(file, &stats)
	}
	printStatistics(&stats)

	if stats.Rejected > 0 {
		os.Exit(2)
	}
}

func processFile(filename string, stats *Statistics) {
	stats.TotalFiles++

	f, err := os.Open(filename)
	if err != nil {
		fmt.Printf("Error reading file %s: %v\n", filename, err)
		return
	}
	defer f.Close()

	// the monitor applies the same checks as a running receiver
	lineNum := 0
	m := discovery.NewMonitor()
	m.SetErrorCb(func(code discovery.ErrorCode, message, payload string) {
		stats.Rejected++
		stats.Errors[code.String()]++
		stats.Failed = append(stats.Failed, FailedTelegram{
			File:       filename,
			LineNumber: lineNum,
			Error:      message,
			Payload:    payload,
		})
	})

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 65536)
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		stats.TotalTelegrams++

		before := stats.Rejected
		m.ProcessReceivedAnnouncement("capture", line)
		if stats.Rejected != before {
			continue
		}

		stats.Accepted++
		if a, err := protocol.DecodeAnnouncement([]byte(line)); err == nil {
			stats.DeviceTypes[a.Device.Type]++
			stats.Devices[a.Device.UUID] = true
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Printf("Error scanning %s: %v\n", filename, err)
	}
}

func printStatistics(stats *Statistics) {
	fmt.Printf("Telegrams: %d in %d file(s)\n", stats.TotalTelegrams, stats.TotalFiles)
	if stats.TotalTelegrams == 0 {
		return
	}
	fmt.Printf("Accepted:  %d (%.1f%%)\n", stats.Accepted, 100*float64(stats.Accepted)/float64(stats.TotalTelegrams))
	fmt.Printf("Rejected:  %d\n", stats.Rejected)
	fmt.Printf("Devices:   %d distinct uuid(s)\n\n", len(stats.Devices))

	if len(stats.DeviceTypes) > 0 {
		fmt.Println("Device types:")
		for _, k := range sortedKeys(stats.DeviceTypes) {
			fmt.Printf("  %-20s %d\n", k, stats.DeviceTypes[k])
		}
		fmt.Println()
	}

	if len(stats.Errors) > 0 {
		fmt.Println("Rejections:")
		for _, k := range sortedKeys(stats.Errors) {
			fmt.Printf("  %-20s %d\n", k, stats.Errors[k])
		}
		fmt.Println()

		fmt.Println("First failures:")
		for i, f := range stats.Failed {
			if i == 10 {
				fmt.Printf("  ... and %d more\n", len(stats.Failed)-10)
				break
			}
			payload := f.Payload
			if len(payload) > 60 {
				payload = payload[:60] + "..."
			}
			fmt.Printf("  %s:%d %s\n    %s\n", f.File, f.LineNumber, f.Error, payload)
		}
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
