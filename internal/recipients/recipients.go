// Package recipients reads the digest mailing list file.
//
// The file has a TO and a CC section, each introduced by a comment line:
//
//	# TO
//	faculty-list@example.edu
//	# CC
//	dean@example.edu
package recipients

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"cetldigest/internal/models"
)

// Load reads the recipient file at path.
func Load(path string) (models.RecipientSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.RecipientSet{}, fmt.Errorf("failed to open recipients file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads recipients from r. Comment lines containing "TO" or "CC"
// switch the active list; addresses before any section are ignored.
func Parse(r io.Reader) (models.RecipientSet, error) {
	var set models.RecipientSet
	var current *[]string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, "#"):
			if strings.Contains(line, "TO") {
				current = &set.To
			} else if strings.Contains(line, "CC") {
				current = &set.CC
			}
		case line == "":
		case current != nil:
			*current = append(*current, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return models.RecipientSet{}, fmt.Errorf("failed to read recipients: %w", err)
	}
	return set, nil
}
