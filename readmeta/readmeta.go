// Copyright (C) 2024-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package readmeta loads jurisdiction descriptor files from the metadata
// directory.
package readmeta

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ranked-vote/rcv.report/model/metadata"
)

// ReadMeta loads every jurisdiction descriptor under metaDir. Descriptors
// are JSON files, one jurisdiction each; results come back sorted by
// jurisdiction path. Malformed metadata is fatal.
func ReadMeta(metaDir string) ([]metadata.Jurisdiction, error) {
	var jurisdictions []metadata.Jurisdiction

	err := filepath.WalkDir(metaDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".json") {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading metadata %s: %w", path, err)
		}
		var jurisdiction metadata.Jurisdiction
		if err := json.Unmarshal(data, &jurisdiction); err != nil {
			return fmt.Errorf("parsing metadata %s: %w", path, err)
		}
		if jurisdiction.Path == "" {
			return fmt.Errorf("metadata %s: missing jurisdiction path", path)
		}

		jurisdictions = append(jurisdictions, jurisdiction)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(jurisdictions, func(i, j int) bool {
		return jurisdictions[i].Path < jurisdictions[j].Path
	})
	return jurisdictions, nil
}
