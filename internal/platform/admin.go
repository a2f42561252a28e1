package platform

import (
	"context"
	"net/http"
	"strconv"
)

// ListCategories returns all event categories.
func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	var categories []Category
	if err := c.call(ctx, http.MethodGet, "/categories", nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// CreateCategory adds a category.
func (c *Client) CreateCategory(ctx context.Context, name string) (*Category, error) {
	var category Category
	if err := c.call(ctx, http.MethodPost, "/categories", map[string]string{"name": name}, &category); err != nil {
		return nil, err
	}
	return &category, nil
}

// RenameCategory changes a category's name.
func (c *Client) RenameCategory(ctx context.Context, id, name string) (*Category, error) {
	var category Category
	if err := c.call(ctx, http.MethodPut, "/categories/"+escape(id), map[string]string{"name": name}, &category); err != nil {
		return nil, err
	}
	return &category, nil
}

// DeleteCategory removes a category.
func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodDelete, "/categories/"+escape(id), nil, nil)
}

// ListUsers returns every account.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.call(ctx, http.MethodGet, "/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateUser edits another account.
func (c *Client) UpdateUser(ctx context.Context, id string, update UserUpdate) (*User, error) {
	var user User
	if err := c.call(ctx, http.MethodPut, "/users/"+escape(id), update, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser removes an account.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodDelete, "/users/"+escape(id), nil, nil)
}

// ListSettings returns the system toggles.
func (c *Client) ListSettings(ctx context.Context) ([]Setting, error) {
	var settings []Setting
	if err := c.call(ctx, http.MethodGet, "/settings", nil, &settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// UpdateSetting switches a toggle on or off.
func (c *Client) UpdateSetting(ctx context.Context, id string, enabled bool) (*Setting, error) {
	var setting Setting
	body := map[string]string{"settingValue": strconv.FormatBool(enabled)}
	if err := c.call(ctx, http.MethodPut, "/settings/"+escape(id), body, &setting); err != nil {
		return nil, err
	}
	return &setting, nil
}

// AdminStats returns the dashboard summary counts.
func (c *Client) AdminStats(ctx context.Context) (*Stats, error) {
	var stats Stats
	if err := c.call(ctx, http.MethodGet, "/admin/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// EventCategoryCounts returns the number of events per category.
func (c *Client) EventCategoryCounts(ctx context.Context) ([]CountBucket, error) {
	var buckets []CountBucket
	if err := c.call(ctx, http.MethodGet, "/admin/event-category-counts", nil, &buckets); err != nil {
		return nil, err
	}
	return buckets, nil
}

// EventMonthCounts returns the number of events per month.
func (c *Client) EventMonthCounts(ctx context.Context) ([]CountBucket, error) {
	var buckets []CountBucket
	if err := c.call(ctx, http.MethodGet, "/admin/event-month-counts", nil, &buckets); err != nil {
		return nil, err
	}
	return buckets, nil
}
