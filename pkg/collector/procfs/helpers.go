package procfs

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/srodi/procreport/pkg/types"
)

// procReadFile allows tests to stub reading files under the proc root.
var procReadFile = os.ReadFile

// pfKthread is the task flag the kernel sets on kernel threads.
const pfKthread = 0x00200000

const (
	pagemapPresent = uint64(1) << 63
	pagemapSwapped = uint64(1) << 62
	pagemapPFNMask = (uint64(1) << 55) - 1
)

func commForPID(root string, pid int) string {
	path := filepath.Join(root, strconv.Itoa(pid), "comm")
	data, err := procReadFile(path)
	if err != nil {
		return fmt.Sprintf("pid-%d", pid)
	}
	comm := strings.TrimSpace(string(bytes.TrimRight(data, "\n")))
	if comm == "" {
		comm = fmt.Sprintf("pid-%d", pid)
	}
	return comm
}

// isKernelThread reads the task flags from /proc/PID/stat. Processes whose
// stat cannot be read are reported as user processes and fail later when
// their maps are read.
func isKernelThread(root string, pid int) bool {
	data, err := procReadFile(filepath.Join(root, strconv.Itoa(pid), "stat"))
	if err != nil {
		return false
	}
	flags, err := parseStatFlags(string(data))
	if err != nil {
		return false
	}
	return flags&pfKthread != 0
}

// parseStatFlags extracts the flags field of a /proc/PID/stat line. The comm
// field may contain spaces and parentheses, so fields are counted from the
// last closing parenthesis.
func parseStatFlags(stat string) (uint64, error) {
	rparen := strings.LastIndex(stat, ")")
	if rparen == -1 || rparen+2 > len(stat) {
		return 0, fmt.Errorf("unexpected stat format")
	}
	fields := strings.Fields(stat[rparen+2:])
	// state ppid pgrp session tty_nr tpgid flags
	if len(fields) < 7 {
		return 0, fmt.Errorf("unexpected stat format: %d fields", len(fields))
	}
	return strconv.ParseUint(fields[6], 10, 64)
}

// parseMaps parses the content of /proc/PID/maps in the order the kernel
// lists the regions.
func parseMaps(r io.Reader) ([]types.Region, error) {
	var regions []types.Region
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		region, err := parseMapsLine(line)
		if err != nil {
			return nil, err
		}
		regions = append(regions, region)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return regions, nil
}

func parseMapsLine(line string) (types.Region, error) {
	fields := strings.Fields(line)
	if len(fields) < 5 {
		return types.Region{}, fmt.Errorf("unexpected maps line %q", line)
	}
	bounds := strings.SplitN(fields[0], "-", 2)
	if len(bounds) != 2 {
		return types.Region{}, fmt.Errorf("unexpected address range %q", fields[0])
	}
	start, err := strconv.ParseUint(bounds[0], 16, 64)
	if err != nil {
		return types.Region{}, fmt.Errorf("parsing region start: %w", err)
	}
	end, err := strconv.ParseUint(bounds[1], 16, 64)
	if err != nil {
		return types.Region{}, fmt.Errorf("parsing region end: %w", err)
	}
	region := types.Region{Start: start, End: end, Perms: fields[1]}
	if len(fields) > 5 {
		region.Path = strings.Join(fields[5:], " ")
	}
	return region, nil
}

// decodePagemap turns a raw pagemap entry into the frame address it points to.
// ok is false for pages that are not in memory, swapped out, or whose PFN was
// hidden from an unprivileged reader.
func decodePagemap(raw uint64, pageShift uint) (physAddr uint64, ok bool) {
	if raw&pagemapPresent == 0 || raw&pagemapSwapped != 0 {
		return 0, false
	}
	pfn := raw & pagemapPFNMask
	if pfn == 0 {
		return 0, false
	}
	return pfn << pageShift, true
}
