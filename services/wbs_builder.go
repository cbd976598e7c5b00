package services

import (
	"fmt"
	"sort"
	"strings"

	"backend/models"
)

// DisciplineTotals carries the already-allocated totals for one discipline
// into WBS construction.
type DisciplineTotals struct {
	Name         string  `json:"name"`
	BudgetTotal  float64 `json:"budget_total"`
	Manhours     float64 `json:"manhours"`
	MaterialCost float64 `json:"material_cost"`
}

// BuildWBSFromGroups builds a two-level tree by grouping disciplines into
// discipline groups via the supplied mapping (discipline name -> group name,
// matched case-insensitively). Groups get two-digit codes in name order;
// disciplines get dotted child codes. Disciplines without a mapping fall into
// an "Other" group. Totals roll up bottom-up.
func BuildWBSFromGroups(disciplines []DisciplineTotals, groups map[string]string) []*models.WBSNode {
	grouped := make(map[string][]DisciplineTotals)
	for _, d := range disciplines {
		group := lookupGroup(d.Name, groups)
		grouped[group] = append(grouped[group], d)
	}

	groupNames := make([]string, 0, len(grouped))
	for name := range grouped {
		groupNames = append(groupNames, name)
	}
	sort.Strings(groupNames)

	var roots []*models.WBSNode
	for i, groupName := range groupNames {
		code := fmt.Sprintf("%02d", i+1)
		parent := &models.WBSNode{
			Code:        code,
			Level:       1,
			Description: groupName,
		}

		members := grouped[groupName]
		sort.Slice(members, func(a, b int) bool { return members[a].Name < members[b].Name })
		for j, d := range members {
			parentCode := code
			child := &models.WBSNode{
				Code:           fmt.Sprintf("%s.%d", code, j+1),
				ParentCode:     &parentCode,
				Level:          2,
				Description:    d.Name,
				DirectBudget:   d.BudgetTotal,
				DirectManhours: d.Manhours,
				DirectMaterial: d.MaterialCost,
			}
			parent.Children = append(parent.Children, child)
		}

		RollupWBS(parent)
		roots = append(roots, parent)
	}

	return roots
}

func lookupGroup(discipline string, groups map[string]string) string {
	if group, ok := groups[discipline]; ok {
		return group
	}
	for name, group := range groups {
		if strings.EqualFold(name, discipline) {
			return group
		}
	}
	return "Other"
}

// BuildWBSFromCodes builds a tree from explicit WBS codes carried by line
// items. Codes are dash- or dot-delimited, up to three levels; parents come
// from code prefixes and are created on demand. Each item's total cost is
// summed into its exact node, then totals roll up bottom-up. Siblings sort
// by code.
func BuildWBSFromCodes(items []models.BudgetLineItem) []*models.WBSNode {
	nodes := make(map[string]*models.WBSNode)

	ensure := func(code string, level int, parentCode string) *models.WBSNode {
		if n, ok := nodes[code]; ok {
			return n
		}
		n := &models.WBSNode{Code: code, Level: level}
		if parentCode != "" {
			pc := parentCode
			n.ParentCode = &pc
		}
		nodes[code] = n
		return n
	}

	for _, item := range items {
		if item.WBSCode == nil {
			continue
		}
		segments := splitWBSCode(*item.WBSCode)
		if len(segments) == 0 {
			continue
		}
		if len(segments) > 3 {
			segments = segments[:3]
		}

		parentCode := ""
		var node *models.WBSNode
		for level := 1; level <= len(segments); level++ {
			code := strings.Join(segments[:level], ".")
			node = ensure(code, level, parentCode)
			if node.Description == "" && level == len(segments) {
				node.Description = item.Discipline
			}
			parentCode = code
		}

		node.DirectBudget += item.TotalCost
		if item.Manhours != nil {
			node.DirectManhours += *item.Manhours
		}
		node.DirectMaterial += item.Materials
	}

	// Link children and find roots.
	var roots []*models.WBSNode
	for _, n := range nodes {
		if n.ParentCode == nil {
			roots = append(roots, n)
			continue
		}
		parent := nodes[*n.ParentCode]
		parent.Children = append(parent.Children, n)
	}

	for _, root := range roots {
		RollupWBS(root)
	}
	sortWBS(roots)
	return roots
}

func splitWBSCode(code string) []string {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil
	}
	parts := strings.FieldsFunc(code, func(r rune) bool {
		return r == '-' || r == '.'
	})
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// RollupWBS recomputes a node's totals as its directly-assigned amounts plus
// the rolled-up totals of its descendants, bottom-up. The pass is idempotent:
// repeated rollups leave totals unchanged.
func RollupWBS(node *models.WBSNode) (budget, manhours, material float64) {
	var childBudget, childManhours, childMaterial float64
	for _, child := range node.Children {
		b, m, mat := RollupWBS(child)
		childBudget += b
		childManhours += m
		childMaterial += mat
	}

	node.BudgetTotal = node.DirectBudget + childBudget
	node.ManhoursTotal = node.DirectManhours + childManhours
	node.MaterialCost = node.DirectMaterial + childMaterial

	sortWBS(node.Children)
	return node.BudgetTotal, node.ManhoursTotal, node.MaterialCost
}

func sortWBS(nodes []*models.WBSNode) {
	sort.Slice(nodes, func(a, b int) bool { return nodes[a].Code < nodes[b].Code })
}
