package repository

import (
	"context"
	"fmt"
	"net/http"

	"aquifer-sync-server/internal/domain"

	"github.com/go-kivik/kivik/v4"
)

type ProjectRepository interface {
	Create(ctx context.Context, project *domain.Project) error
	Get(ctx context.Context, projectID string) (*domain.Project, error)
	ListByOrganization(ctx context.Context, organizationID string) ([]*domain.Project, error)
	Update(ctx context.Context, project *domain.Project) error
}

type projectRepository struct {
	client *kivik.Client
	dbName string
}

func NewProjectRepository(client *kivik.Client, dbName string) ProjectRepository {
	return &projectRepository{
		client: client,
		dbName: dbName,
	}
}

func projectDocID(id string) string {
	return fmt.Sprintf("project:%s", id)
}

func (r *projectRepository) Create(ctx context.Context, project *domain.Project) error {
	db := r.client.DB(r.dbName)

	if _, err := db.Put(ctx, projectDocID(project.ID), project); err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	return nil
}

func (r *projectRepository) Get(ctx context.Context, projectID string) (*domain.Project, error) {
	db := r.client.DB(r.dbName)

	var project domain.Project
	row := db.Get(ctx, projectDocID(projectID))
	if err := row.ScanDoc(&project); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}

	return &project, nil
}

func (r *projectRepository) ListByOrganization(ctx context.Context, organizationID string) ([]*domain.Project, error) {
	db := r.client.DB(r.dbName)

	query := map[string]interface{}{
		"selector": map[string]interface{}{
			"organization_id": organizationID,
			"name":            map[string]interface{}{"$exists": true},
		},
	}

	rows := db.Find(ctx, query)
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []*domain.Project
	for rows.Next() {
		var p domain.Project
		if err := rows.ScanDoc(&p); err != nil {
			continue
		}
		projects = append(projects, &p)
	}

	return projects, nil
}

func (r *projectRepository) Update(ctx context.Context, project *domain.Project) error {
	db := r.client.DB(r.dbName)
	docID := projectDocID(project.ID)

	var existing map[string]interface{}
	row := db.Get(ctx, docID)
	if err := row.ScanDoc(&existing); err != nil {
		if kivik.HTTPStatus(err) == http.StatusNotFound {
			return ErrNotFound
		}
		return fmt.Errorf("failed to fetch project for update: %w", err)
	}

	doc, err := toDoc(project)
	if err != nil {
		return fmt.Errorf("failed to encode project: %w", err)
	}
	doc["_id"] = docID
	doc["_rev"] = existing["_rev"]

	if _, err := db.Put(ctx, docID, doc); err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}

	return nil
}
