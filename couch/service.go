// Package couch persists editor pages in CouchDB. A page is one saved
// diagram: the .pats document body under a stable id. The engine never reads
// these; the HTTP layer serves them to the editor.
package couch

import (
	"context"

	_ "github.com/go-kivik/couchdb/v3"
	"github.com/go-kivik/kivik/v3"
	"github.com/google/uuid"

	"github.com/patsnet/petri/dto"
)

// Page is a stored diagram.
type Page struct {
	ID  string        `json:"_id"`
	Rev string        `json:"_rev,omitempty"`
	Net *dto.PetriNet `json:"net"`
}

type Service struct {
	cancel func()
	db     *kivik.DB
	revMap map[string]string
}

// Open connects to CouchDB at uri and ensures the named database exists.
func Open(uri, name string) (*Service, error) {
	client, err := kivik.New("couch", uri)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	dbs, err := client.AllDBs(ctx)
	if err != nil {
		cancel()
		return nil, err
	}
	found := false
	for _, db := range dbs {
		if db == name {
			found = true
			break
		}
	}
	if !found {
		if err := client.CreateDB(ctx, name); err != nil {
			cancel()
			return nil, err
		}
	}
	return &Service{
		cancel: cancel,
		db:     client.DB(ctx, name),
		revMap: make(map[string]string),
	}, nil
}

func (s *Service) Close() error {
	s.cancel()
	return nil
}

// Get loads one page.
func (s *Service) Get(ctx context.Context, id string) (*Page, error) {
	var page Page
	row := s.db.Get(ctx, id)
	if err := row.ScanDoc(&page); err != nil {
		return nil, err
	}
	s.revMap[id] = row.Rev
	return &page, nil
}

// List returns every stored page.
func (s *Service) List(ctx context.Context) ([]*Page, error) {
	pages := make([]*Page, 0)
	rows, err := s.db.Find(ctx, map[string]interface{}{
		"selector": map[string]interface{}{},
	}, kivik.Options{})
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var page Page
		if err := rows.ScanDoc(&page); err != nil {
			return nil, err
		}
		s.revMap[page.ID] = page.Rev
		pages = append(pages, &page)
	}
	return pages, rows.Err()
}

// Put stores a page, creating it when the id is empty and updating the
// existing revision otherwise.
func (s *Service) Put(ctx context.Context, id string, net *dto.PetriNet) (*Page, error) {
	if id == "" {
		id = uuid.NewString()
	}
	page := &Page{
		ID:  id,
		Net: net,
	}
	if rev, ok := s.revMap[id]; ok {
		page.Rev = rev
	} else if existing, err := s.Get(ctx, id); err == nil {
		page.Rev = existing.Rev
	}
	rev, err := s.db.Put(ctx, id, page)
	if err != nil {
		return nil, err
	}
	s.revMap[id] = rev
	page.Rev = rev
	return page, nil
}

// Remove deletes a page and returns its last content.
func (s *Service) Remove(ctx context.Context, id string) (*Page, error) {
	page, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	rev, err := s.db.Delete(ctx, id, s.revMap[id])
	if err != nil {
		return nil, err
	}
	s.revMap[id] = rev
	return page, nil
}
