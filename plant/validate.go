package plant

import "fmt"

// Validate checks the organ tree: exactly one root with no parent, every
// live organ owned by this plant and reachable from the root through live
// parents without cycles.
func (p *Plant) Validate() error {
	roots := 0
	for o := range p.Organs() {
		if o.Owner != p.ID {
			return fmt.Errorf("organ %d (%s) owned by %s, not %s", o.ID, o.Kind, o.Owner, p.ID)
		}
		if p.organs[o.ID] != o {
			return fmt.Errorf("organ %d (%s) stored at wrong arena slot", o.ID, o.Kind)
		}
		if o.Kind == OrganRoot {
			roots++
			if o.Parent != NoOrgan {
				return fmt.Errorf("root organ %d has parent %d", o.ID, o.Parent)
			}
			continue
		}

		// Walk to the root; more steps than organs means a cycle.
		cur := o
		for steps := 0; cur.Kind != OrganRoot; steps++ {
			if steps > len(p.organs) {
				return fmt.Errorf("organ %d (%s): cyclic parent chain", o.ID, o.Kind)
			}
			next := p.Organ(cur.Parent)
			if next == nil {
				return fmt.Errorf("organ %d (%s): parent %d missing", cur.ID, cur.Kind, cur.Parent)
			}
			cur = next
		}
		if cur.ID != p.root {
			return fmt.Errorf("organ %d (%s) reaches root %d, plant root is %d", o.ID, o.Kind, cur.ID, p.root)
		}
	}
	if roots != 1 {
		return fmt.Errorf("plant has %d root organs, want 1", roots)
	}
	return nil
}
