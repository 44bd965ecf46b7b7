// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package routing

// Sector is one entry of the routing vocabulary.
// A path segment matches when its normalized form equals, or starts with,
// Name or any of the Keywords.
type Sector struct {
	Name     string
	Keywords []string
}

// DefaultSectors is the critical-infrastructure sector vocabulary.
// Order matters: the first sector whose keyword matches a segment wins.
var DefaultSectors = []Sector{
	{Name: "chemical", Keywords: []string{"chem"}},
	{Name: "commercial_facilities", Keywords: []string{"commercial", "retail", "venue"}},
	{Name: "communications", Keywords: []string{"comms", "telecom", "broadcast"}},
	{Name: "critical_manufacturing", Keywords: []string{"manufacturing", "factory"}},
	{Name: "dams", Keywords: []string{"dam", "levee"}},
	{Name: "defense_industrial_base", Keywords: []string{"defense", "defence", "dib"}},
	{Name: "emergency_services", Keywords: []string{"emergency", "fire", "ems", "police"}},
	{Name: "energy", Keywords: []string{"power", "grid", "electric", "oil", "gas", "utility"}},
	{Name: "financial_services", Keywords: []string{"financial", "finance", "bank", "fintech"}},
	{Name: "food_agriculture", Keywords: []string{"food", "agriculture", "agri", "farm"}},
	{Name: "government_facilities", Keywords: []string{"government", "gov", "municipal"}},
	{Name: "healthcare", Keywords: []string{"health", "hospital", "medical", "pharma"}},
	{Name: "information_technology", Keywords: []string{"information_technology", "it", "cyber", "software"}},
	{Name: "nuclear", Keywords: []string{"nuclear", "reactor"}},
	{Name: "transportation", Keywords: []string{"transport", "aviation", "rail", "maritime", "transit"}},
	{Name: "water", Keywords: []string{"water", "wastewater"}},
}

// SectorNames returns the names of the given vocabulary in order.
func SectorNames(sectors []Sector) []string {
	names := make([]string, len(sectors))
	for i, s := range sectors {
		names[i] = s.Name
	}
	return names
}
