package services

import (
	"context"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"community-service/internal/models"
	"community-service/internal/repositories"
)

var statsGroupStatuses = []models.GroupStatus{models.GroupApproved, models.GroupActive, models.GroupPending}

// StatsService derives the admin dashboard summaries. Every call refetches the rows and
// reduces them in memory; nothing is maintained incrementally.
type StatsService struct {
	users       repositories.UserRepository
	groups      repositories.GroupRepository
	memberships repositories.MembershipRepository
	tracer      trace.Tracer
}

func NewStatsService(users repositories.UserRepository, groups repositories.GroupRepository, memberships repositories.MembershipRepository) *StatsService {
	return &StatsService{
		users:       users,
		groups:      groups,
		memberships: memberships,
		tracer:      otel.Tracer("community-service/stats"),
	}
}

type StatsSummary struct {
	Newcomers models.NewcomersStats `json:"newcomers"`
	Groups    models.GroupsStats    `json:"groups"`
	Requests  models.RequestsStats  `json:"requests"`
}

func (s *StatsService) Newcomers(ctx context.Context, adminID string) (models.NewcomersStats, error) {
	ctx, span := s.tracer.Start(ctx, "stats.newcomers")
	defer span.End()

	var zero models.NewcomersStats
	admin, err := s.users.GetByID(ctx, adminID)
	if err != nil {
		return zero, notFoundAs(err, "user")
	}
	if admin.Church() == "" {
		return zero, nil
	}

	newcomers, err := s.users.ListNewcomersByChurch(ctx, admin.Church())
	if err != nil {
		return zero, err
	}
	span.SetAttributes(attribute.Int("newcomers", len(newcomers)))
	if len(newcomers) == 0 {
		return zero, nil
	}

	ids := make([]string, 0, len(newcomers))
	for _, u := range newcomers {
		ids = append(ids, u.ID)
	}
	memberships, err := s.memberships.ListByUsers(ctx, ids)
	if err != nil {
		return zero, err
	}
	if len(memberships) == 0 {
		return zero, nil
	}

	groups, err := s.groups.ListByIDs(ctx, uniqueGroupIDs(memberships))
	if err != nil {
		return zero, err
	}
	return ReduceNewcomers(newcomers, memberships, groups, admin.Service()), nil
}

// ReduceNewcomers counts newcomers with at least one live membership in an approved group of
// serviceID (any service when serviceID is empty); connected ones have journey status 3 there.
func ReduceNewcomers(newcomers []models.User, memberships []models.GroupMembership, groups []models.Group, serviceID string) models.NewcomersStats {
	isNewcomer := make(map[string]bool, len(newcomers))
	for _, u := range newcomers {
		isNewcomer[u.ID] = true
	}

	qualifying := make(map[string]bool, len(groups))
	for _, g := range groups {
		if g.Status != models.GroupApproved {
			continue
		}
		if serviceID != "" && (g.ServiceID == nil || *g.ServiceID != serviceID) {
			continue
		}
		qualifying[g.ID] = true
	}

	total := make(map[string]bool)
	connected := make(map[string]bool)
	for _, m := range memberships {
		if !isNewcomer[m.UserID] || !qualifying[m.GroupID] || m.Status == models.MembershipInactive {
			continue
		}
		total[m.UserID] = true
		if m.Journey() == models.JourneyConnected {
			connected[m.UserID] = true
		}
	}

	return models.NewcomersStats{
		Total:        len(total),
		Connected:    len(connected),
		NotConnected: len(total) - len(connected),
	}
}

func (s *StatsService) Groups(ctx context.Context, adminID string) (models.GroupsStats, error) {
	ctx, span := s.tracer.Start(ctx, "stats.groups")
	defer span.End()

	var zero models.GroupsStats
	admin, err := s.users.GetByID(ctx, adminID)
	if err != nil {
		return zero, notFoundAs(err, "user")
	}
	if admin.Church() == "" {
		return zero, nil
	}

	groups, err := s.groups.ListByChurch(ctx, admin.Church(), statsGroupStatuses)
	if err != nil {
		return zero, err
	}
	span.SetAttributes(attribute.Int("groups", len(groups)))
	if len(groups) == 0 {
		return zero, nil
	}

	ids := make([]string, 0, len(groups))
	for _, g := range groups {
		if g.Status != models.GroupPending {
			ids = append(ids, g.ID)
		}
	}
	counts, err := s.memberships.CountActiveByGroups(ctx, ids)
	if err != nil {
		return zero, err
	}
	return ReduceGroups(groups, counts), nil
}

// ReduceGroups splits non-pending groups by whether their active member count has reached a
// positive max_members. Groups outside approved/active/pending are ignored, so
// AtCapacity + NotAtCapacity == Total - Pending always holds.
func ReduceGroups(groups []models.Group, activeMembers map[string]int) models.GroupsStats {
	var stats models.GroupsStats
	for _, g := range groups {
		switch g.Status {
		case models.GroupPending:
			stats.Total++
			stats.Pending++
		case models.GroupApproved, models.GroupActive:
			stats.Total++
			if g.MaxMembers != nil && *g.MaxMembers > 0 && activeMembers[g.ID] >= *g.MaxMembers {
				stats.AtCapacity++
			} else {
				stats.NotAtCapacity++
			}
		}
	}
	return stats
}

func (s *StatsService) Requests(ctx context.Context, adminID string) (models.RequestsStats, error) {
	ctx, span := s.tracer.Start(ctx, "stats.requests")
	defer span.End()

	zero := models.RequestsStats{ArchivedByReason: []models.ReasonCount{}}
	admin, err := s.users.GetByID(ctx, adminID)
	if err != nil {
		return zero, notFoundAs(err, "user")
	}
	if admin.Church() == "" {
		return zero, nil
	}

	groups, err := s.groups.ListByChurch(ctx, admin.Church(), statsGroupStatuses)
	if err != nil {
		return zero, err
	}
	if len(groups) == 0 {
		return zero, nil
	}
	ids := make([]string, 0, len(groups))
	for _, g := range groups {
		ids = append(ids, g.ID)
	}

	outstanding, err := s.memberships.CountPendingByGroups(ctx, ids)
	if err != nil {
		return zero, err
	}
	notes, err := s.memberships.ListArchivedNotesByGroups(ctx, ids)
	if err != nil {
		return zero, err
	}

	stats := ReduceArchivedRequests(notes)
	stats.Outstanding = outstanding
	return stats, nil
}

const unspecifiedReason = "unspecified"

// ReduceArchivedRequests counts distinct archived memberships and archive notes per reason,
// ordered by count descending then reason ascending.
func ReduceArchivedRequests(notes []models.MembershipNote) models.RequestsStats {
	memberships := make(map[string]bool)
	counts := make(map[string]int)
	for _, n := range notes {
		if n.Action != models.NoteActionArchived {
			continue
		}
		memberships[n.MembershipID] = true
		reason := n.Reason
		if reason == "" {
			reason = unspecifiedReason
		}
		counts[reason]++
	}

	byReason := make([]models.ReasonCount, 0, len(counts))
	for reason, count := range counts {
		byReason = append(byReason, models.ReasonCount{Reason: reason, Count: count})
	}
	sort.Slice(byReason, func(i, j int) bool {
		if byReason[i].Count != byReason[j].Count {
			return byReason[i].Count > byReason[j].Count
		}
		return byReason[i].Reason < byReason[j].Reason
	})

	return models.RequestsStats{Archived: len(memberships), ArchivedByReason: byReason}
}

func (s *StatsService) Summary(ctx context.Context, adminID string) (StatsSummary, error) {
	var (
		summary StatsSummary
		err     error
	)
	if summary.Newcomers, err = s.Newcomers(ctx, adminID); err != nil {
		return summary, err
	}
	if summary.Groups, err = s.Groups(ctx, adminID); err != nil {
		return summary, err
	}
	if summary.Requests, err = s.Requests(ctx, adminID); err != nil {
		return summary, err
	}
	return summary, nil
}

func uniqueGroupIDs(memberships []models.GroupMembership) []string {
	seen := make(map[string]bool, len(memberships))
	ids := make([]string, 0, len(memberships))
	for _, m := range memberships {
		if !seen[m.GroupID] {
			seen[m.GroupID] = true
			ids = append(ids, m.GroupID)
		}
	}
	return ids
}
