// Package category keeps the zone type hierarchy as an explicit tree.
// Every node stores its parent and a materialized "A / B / C" path that is
// updated incrementally on insert, rename and move.
package category

import (
	"sort"
	"strings"
	"sync"

	"github.com/Domenick1991/paintballpark/internal/domain"
)

const PathSeparator = " / "

type node struct {
	category domain.Category
	parent   *node
	children map[string]*node // by name
}

// Tree is safe for concurrent use.
type Tree struct {
	mu    sync.RWMutex
	roots map[string]*node
	byID  map[string]*node
}

func NewTree() *Tree {
	return &Tree{
		roots: make(map[string]*node),
		byID:  make(map[string]*node),
	}
}

// Load rebuilds the tree from stored categories regardless of their order.
func (t *Tree) Load(categories []domain.Category) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.roots = make(map[string]*node)
	t.byID = make(map[string]*node)

	pending := append([]domain.Category(nil), categories...)
	for len(pending) > 0 {
		progressed := false
		rest := pending[:0]
		for _, c := range pending {
			if c.ParentID != "" {
				if _, ok := t.byID[c.ParentID]; !ok {
					rest = append(rest, c)
					continue
				}
			}
			if _, err := t.insertLocked(c); err != nil {
				return err
			}
			progressed = true
		}
		pending = rest
		if !progressed {
			return domain.NewValidationError("category %s references unknown parent %s", pending[0].ID, pending[0].ParentID)
		}
	}
	return nil
}

// Add inserts c under c.ParentID and returns it with its Path filled in.
func (t *Tree) Add(c domain.Category) (domain.Category, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.insertLocked(c)
}

func (t *Tree) insertLocked(c domain.Category) (domain.Category, error) {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return domain.Category{}, domain.NewValidationError("category name is required")
	}
	if strings.Contains(name, strings.TrimSpace(PathSeparator)) {
		return domain.Category{}, domain.NewValidationError("category name must not contain %q", PathSeparator)
	}
	if _, ok := t.byID[c.ID]; ok {
		return domain.Category{}, domain.NewValidationError("category %s already exists", c.ID)
	}
	c.Name = name

	siblings := t.roots
	var parent *node
	if c.ParentID != "" {
		p, ok := t.byID[c.ParentID]
		if !ok {
			return domain.Category{}, domain.ErrCategoryNotFound
		}
		parent = p
		siblings = p.children
	}
	if _, ok := siblings[name]; ok {
		return domain.Category{}, domain.NewValidationError("category %q already exists at this level", name)
	}

	n := &node{category: c, parent: parent, children: make(map[string]*node)}
	n.category.Path = pathOf(parent, name)
	siblings[name] = n
	t.byID[c.ID] = n
	return n.category, nil
}

func pathOf(parent *node, name string) string {
	if parent == nil {
		return name
	}
	return parent.category.Path + PathSeparator + name
}

// Rename changes a node's name and refreshes the paths of its subtree.
func (t *Tree) Rename(id, name string) (domain.Category, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	n, ok := t.byID[id]
	if !ok {
		return domain.Category{}, domain.ErrCategoryNotFound
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Category{}, domain.NewValidationError("category name is required")
	}
	siblings := t.siblingsLocked(n)
	if other, ok := siblings[name]; ok && other != n {
		return domain.Category{}, domain.NewValidationError("category %q already exists at this level", name)
	}
	delete(siblings, n.category.Name)
	n.category.Name = name
	siblings[name] = n
	refreshPaths(n)
	return n.category, nil
}

// Move re-parents a node; parentID "" makes it a root.
func (t *Tree) Move(id, parentID string) (domain.Category, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	n, ok := t.byID[id]
	if !ok {
		return domain.Category{}, domain.ErrCategoryNotFound
	}
	var parent *node
	target := t.roots
	if parentID != "" {
		p, ok := t.byID[parentID]
		if !ok {
			return domain.Category{}, domain.ErrCategoryNotFound
		}
		for a := p; a != nil; a = a.parent {
			if a == n {
				return domain.Category{}, domain.NewValidationError("category cannot be moved under itself")
			}
		}
		parent = p
		target = p.children
	}
	if _, ok := target[n.category.Name]; ok {
		return domain.Category{}, domain.NewValidationError("category %q already exists at this level", n.category.Name)
	}
	delete(t.siblingsLocked(n), n.category.Name)
	n.parent = parent
	n.category.ParentID = parentID
	target[n.category.Name] = n
	refreshPaths(n)
	return n.category, nil
}

func (t *Tree) siblingsLocked(n *node) map[string]*node {
	if n.parent == nil {
		return t.roots
	}
	return n.parent.children
}

func refreshPaths(n *node) {
	n.category.Path = pathOf(n.parent, n.category.Name)
	for _, c := range n.children {
		refreshPaths(c)
	}
}

func (t *Tree) Get(id string) (domain.Category, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n, ok := t.byID[id]
	if !ok {
		return domain.Category{}, domain.ErrCategoryNotFound
	}
	return n.category, nil
}

// FindByPath walks the tree one segment at a time.
func (t *Tree) FindByPath(path string) (domain.Category, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	level := t.roots
	var found *node
	for _, segment := range strings.Split(path, strings.TrimSpace(PathSeparator)) {
		segment = strings.TrimSpace(segment)
		n, ok := level[segment]
		if !ok {
			return domain.Category{}, domain.ErrCategoryNotFound
		}
		found = n
		level = n.children
	}
	if found == nil {
		return domain.Category{}, domain.ErrCategoryNotFound
	}
	return found.category, nil
}

// Descendants returns the IDs of id and every category below it.
func (t *Tree) Descendants(id string) ([]string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n, ok := t.byID[id]
	if !ok {
		return nil, domain.ErrCategoryNotFound
	}
	ids := make([]string, 0)
	var walk func(*node)
	walk = func(n *node) {
		ids = append(ids, n.category.ID)
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(n)
	return ids, nil
}

// List returns all categories sorted by path.
func (t *Tree) List() []domain.Category {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]domain.Category, 0, len(t.byID))
	for _, n := range t.byID {
		out = append(out, n.category)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
