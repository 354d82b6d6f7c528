package stack

import "sort"

// =============================================================================
// Service Ordering
// =============================================================================

// ServiceNode is a service and the services it depends on.
type ServiceNode struct {
	Name      string
	DependsOn []string
}

// StartupOrder sorts services so that every service comes after its
// dependencies, using Kahn's algorithm. Ties are broken by name so the order
// is stable across runs.
//
// Dependencies on services outside the list are ignored. If a cycle exists,
// the services in it are appended in name order as a fallback.
//
// Example:
//
//	StartupOrder([]ServiceNode{
//	    {Name: "webserver", DependsOn: []string{"db"}},
//	    {Name: "db"},
//	})
//	// ["db", "webserver"]
func StartupOrder(services []ServiceNode) []string {
	if len(services) == 0 {
		return nil
	}

	inDegree := make(map[string]int, len(services))
	for _, svc := range services {
		inDegree[svc.Name] = 0
	}

	dependents := make(map[string][]string)
	for _, svc := range services {
		for _, dep := range svc.DependsOn {
			if _, known := inDegree[dep]; !known {
				continue
			}
			inDegree[svc.Name]++
			dependents[dep] = append(dependents[dep], svc.Name)
		}
	}

	var queue []string
	for name, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, name)
		}
	}
	sort.Strings(queue)

	result := make([]string, 0, len(services))
	placed := make(map[string]bool, len(services))
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		result = append(result, name)
		placed[name] = true

		var ready []string
		for _, dep := range dependents[name] {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
		sort.Strings(ready)
		queue = append(queue, ready...)
	}

	if len(result) < len(inDegree) {
		var rest []string
		for name := range inDegree {
			if !placed[name] {
				rest = append(rest, name)
			}
		}
		sort.Strings(rest)
		result = append(result, rest...)
	}

	return result
}
