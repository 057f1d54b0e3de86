package logging

import (
	"bufio"
	"fmt"
	"os"
)

// DefaultTailLines is how many lines the log viewer shows.
const DefaultTailLines = 20

// Tail returns the last n lines of the file at path in their original order.
// A missing file yields an error matching fs.ErrNotExist.
func Tail(path string, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ring := make([]string, n)
	count := 0

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		ring[count%n] = scanner.Text()
		count++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read log file: %w", err)
	}

	if count <= n {
		return ring[:count], nil
	}

	start := count % n
	return append(ring[start:], ring[:start]...), nil
}
