package store

import (
	"context"

	"availability-service/internal/availability"
)

func (s *Store) ActiveEmployees(ctx context.Context, tenantID string) ([]availability.Employee, error) {
	q := `SELECT id, tenant_id, name, is_active
	      FROM employees WHERE tenant_id=$1 AND is_active ORDER BY id`
	rows, err := s.DB.Query(ctx, q, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []availability.Employee
	for rows.Next() {
		var e availability.Employee
		if err := rows.Scan(&e.ID, &e.TenantID, &e.Name, &e.IsActive); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) Service(ctx context.Context, tenantID, serviceID string) (*availability.Service, error) {
	q := `SELECT id, tenant_id, name, COALESCE(duration_minutes, 0), is_active
	      FROM services WHERE tenant_id=$1 AND id=$2`
	var v availability.Service
	err := s.DB.QueryRow(ctx, q, tenantID, serviceID).
		Scan(&v.ID, &v.TenantID, &v.Name, &v.DurationMinutes, &v.IsActive)
	if err != nil {
		return nil, notFound(err)
	}
	return &v, nil
}
