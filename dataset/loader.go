// Copyright 2024 comrec Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dataset

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/juju/errors"
)

// LoadCSV loads ratings from a delimited text file with lines of the form
// <userId><sep><itemId><sep><rating>. Extra fields such as timestamps are
// ignored. Lines starting with '#' are treated as comments.
func LoadCSV(path, sep string, hasHeader bool) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer file.Close()
	data := NewDataset(0, 0)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if hasHeader {
			hasHeader = false
			continue
		}
		if strings.HasPrefix(line, "#") || len(strings.TrimSpace(line)) == 0 {
			continue
		}
		fields := strings.Split(line, sep)
		if len(fields) < 3 {
			return nil, errors.NotValidf("rating line %q", line)
		}
		rating, err := strconv.ParseFloat(fields[2], 32)
		if err != nil {
			return nil, errors.Trace(err)
		}
		data.AddRating(fields[0], fields[1], float32(rating))
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Trace(err)
	}
	return data, nil
}
