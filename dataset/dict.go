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

// FreqDict is a dictionary that translates string ids to dense integer
// indices and counts the frequency of each id.
type FreqDict struct {
	si  map[string]int32
	is  []string
	cnt []int
}

func NewFreqDict() (d *FreqDict) {
	d = &FreqDict{map[string]int32{}, []string{}, []int{}}
	return
}

func (d *FreqDict) Count() int32 {
	return int32(len(d.is))
}

// Id returns the dense index of a string, adding it to the dictionary if
// needed and counting the occurrence.
func (d *FreqDict) Id(s string) (y int32) {
	if y, ok := d.si[s]; ok {
		d.cnt[y]++
		return y
	}

	y = int32(len(d.is))
	d.si[s] = y
	d.is = append(d.is, s)
	d.cnt = append(d.cnt, 1)
	return
}

// ToIndex returns the dense index of a string without modifying the
// dictionary. Returns -1 if the string is unknown.
func (d *FreqDict) ToIndex(s string) int32 {
	if y, ok := d.si[s]; ok {
		return y
	}
	return -1
}

func (d *FreqDict) String(id int32) (s string, ok bool) {
	if id < 0 || id >= int32(len(d.is)) {
		return "", false
	}
	return d.is[id], true
}

func (d *FreqDict) Freq(id int32) int {
	if id < 0 || id >= int32(len(d.cnt)) {
		return 0
	}
	return d.cnt[id]
}
