package goal

import "sort"

// Node is a goal with its sub-goals in an IEP hierarchy.
type Node struct {
	Goal
	SubGoals []*Node       `json:"subGoals"`
	Summary  StatusSummary `json:"summary"`
}

// StatusSummary counts goals per status in a subtree (the node included).
type StatusSummary struct {
	Total        int `json:"total"`
	InProgress   int `json:"inProgress"`
	Achieved     int `json:"achieved"`
	Modified     int `json:"modified"`
	Discontinued int `json:"discontinued"`
}

func (s *StatusSummary) add(status string) {
	s.Total++
	switch status {
	case StatusInProgress:
		s.InProgress++
	case StatusAchieved:
		s.Achieved++
	case StatusModified:
		s.Modified++
	case StatusDiscontinued:
		s.Discontinued++
	}
}

func (s *StatusSummary) merge(o StatusSummary) {
	s.Total += o.Total
	s.InProgress += o.InProgress
	s.Achieved += o.Achieved
	s.Modified += o.Modified
	s.Discontinued += o.Discontinued
}

// Organize builds the goal forest from ParentGoalID links.
// Goals whose parent is absent from `goals` become roots; siblings are ordered by DateCreated, then CreatedAt.
func Organize(goals []Goal) []*Node {
	nodes := make(map[string]*Node, len(goals))
	for _, g := range goals {
		nodes[g.ID] = &Node{Goal: g, SubGoals: []*Node{}}
	}

	roots := make([]*Node, 0)
	for _, g := range goals {
		node := nodes[g.ID]
		if parent, ok := nodes[g.ParentGoalID.String]; g.ParentGoalID.Valid && ok && parent != node {
			parent.SubGoals = append(parent.SubGoals, node)
		} else {
			roots = append(roots, node)
		}
	}

	// nodes unreachable from a root are in a cycle: promote one per cycle
	visited := make(map[string]bool, len(goals))
	var visit func(n *Node)
	visit = func(n *Node) {
		if visited[n.ID] {
			return
		}
		visited[n.ID] = true
		for _, sub := range n.SubGoals {
			visit(sub)
		}
	}
	for _, root := range roots {
		visit(root)
	}
	for _, g := range goals {
		if node := nodes[g.ID]; !visited[g.ID] {
			if parent := nodes[g.ParentGoalID.String]; parent != nil {
				parent.SubGoals = removeNode(parent.SubGoals, node)
			}
			roots = append(roots, node)
			visit(node)
		}
	}

	sortNodes(roots)
	for _, root := range roots {
		summarize(root)
	}
	return roots
}

func removeNode(list []*Node, node *Node) []*Node {
	for i, n := range list {
		if n == node {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

func sortNodes(nodes []*Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].DateCreated != nodes[j].DateCreated {
			return nodes[i].DateCreated < nodes[j].DateCreated
		}
		return nodes[i].CreatedAt.Before(nodes[j].CreatedAt.Time)
	})
	for _, n := range nodes {
		sortNodes(n.SubGoals)
	}
}

func summarize(n *Node) StatusSummary {
	n.Summary = StatusSummary{}
	n.Summary.add(n.Status)
	for _, sub := range n.SubGoals {
		n.Summary.merge(summarize(sub))
	}
	return n.Summary
}
