package service

import (
	"context"
	"testing"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/projeval-api/internal/dto"
	"github.com/noah-isme/projeval-api/internal/models"
	"github.com/noah-isme/projeval-api/internal/observability"
	"github.com/noah-isme/projeval-api/internal/testutil"
)

func TestBadgeServiceAwardOncePerName(t *testing.T) {
	f := newServiceFixture(t)
	professor := testutil.CreateProfessor(t, f.db, "Prof", "prof@uni.edu")
	student := testutil.CreateStudent(t, f.db, "Stu", "stu@uni.edu")
	svc := f.badgeService()
	ctx := context.Background()

	badge, err := svc.Award(ctx, principalOf(professor), dto.BadgeAwardRequest{StudentID: student.Student.ID, Name: "Helper"})
	require.NoError(t, err)
	require.Equal(t, "Helper", badge.Name)
	require.Equal(t, student.Student.ID, badge.StudentID)

	_, err = svc.Award(ctx, principalOf(professor), dto.BadgeAwardRequest{StudentID: student.Student.ID, Name: "Helper"})
	require.ErrorIs(t, err, ErrBadInput)
	require.EqualError(t, err, "student already has this badge")

	collaborator, err := svc.AwardCollaborator(ctx, principalOf(professor), dto.CollaboratorBadgeRequest{StudentID: student.Student.ID})
	require.NoError(t, err)
	require.Equal(t, models.BadgeCollaborator, collaborator.Name)

	_, err = svc.AwardCollaborator(ctx, principalOf(professor), dto.CollaboratorBadgeRequest{StudentID: student.Student.ID})
	require.ErrorIs(t, err, ErrBadInput)

	awarded := f.events.ofType(dto.EventBadgeAwarded)
	require.Len(t, awarded, 2)
	require.Equal(t, student.ID, awarded[0].UserID)

	mine, err := svc.ListMine(ctx, principalOf(student))
	require.NoError(t, err)
	require.Len(t, mine, 2)
}

func TestBadgeServiceRoleAndLookupFailures(t *testing.T) {
	f := newServiceFixture(t)
	professor := testutil.CreateProfessor(t, f.db, "Prof", "prof@uni.edu")
	student := testutil.CreateStudent(t, f.db, "Stu", "stu@uni.edu")
	svc := f.badgeService()
	ctx := context.Background()

	_, err := svc.Award(ctx, principalOf(student), dto.BadgeAwardRequest{StudentID: student.Student.ID, Name: "Self"})
	require.ErrorIs(t, err, ErrForbidden)

	_, err = svc.Award(ctx, principalOf(professor), dto.BadgeAwardRequest{StudentID: 404, Name: "Ghost"})
	require.ErrorIs(t, err, ErrNotFound)
	require.EqualError(t, err, "student not found")

	_, err = svc.Award(ctx, principalOf(professor), dto.BadgeAwardRequest{StudentID: student.Student.ID, Name: "<b></b>"})
	require.Error(t, err)

	_, err = svc.ListMine(ctx, principalOf(professor))
	require.ErrorIs(t, err, ErrForbidden)

	_, err = svc.ListStudents(ctx, principalOf(student))
	require.ErrorIs(t, err, ErrForbidden)
}

func TestBadgeServiceAwardIfAbsent(t *testing.T) {
	f := newServiceFixture(t)
	student := testutil.CreateStudent(t, f.db, "Stu", "stu@uni.edu")
	svc := f.badgeService()
	ctx := context.Background()

	badge, inserted, err := svc.AwardIfAbsent(ctx, student.Student.ID, models.BadgePerfectionist)
	require.NoError(t, err)
	require.True(t, inserted)
	require.Equal(t, models.BadgePerfectionist, badge.Name)
	require.NotZero(t, badge.ID)

	_, inserted, err = svc.AwardIfAbsent(ctx, student.Student.ID, models.BadgePerfectionist)
	require.NoError(t, err)
	require.False(t, inserted)

	_, _, err = svc.AwardIfAbsent(ctx, 404, models.BadgePerfectionist)
	require.ErrorIs(t, err, ErrNotFound)

	require.Len(t, f.events.ofType(dto.EventBadgeAwarded), 1)
}

func TestBadgeServiceListStudents(t *testing.T) {
	f := newServiceFixture(t)
	professor := testutil.CreateProfessor(t, f.db, "Prof", "prof@uni.edu")
	testutil.CreateStudent(t, f.db, "Zed", "zed@uni.edu")
	testutil.CreateStudent(t, f.db, "Amy", "amy@uni.edu")

	students, err := f.badgeService().ListStudents(context.Background(), principalOf(professor))
	require.NoError(t, err)
	require.Len(t, students, 2)
	require.Equal(t, "Amy", students[0].Name)
	require.Equal(t, "zed@uni.edu", students[1].Email)
}

func TestBadgeMetricLabelIsBounded(t *testing.T) {
	require.Equal(t, "earlybird", badgeMetricLabel(models.BadgeEarlyBird))
	require.Equal(t, "perfectionist", badgeMetricLabel(models.BadgePerfectionist))
	require.Equal(t, "collaborator", badgeMetricLabel(models.BadgeCollaborator))
	require.Equal(t, "custom", badgeMetricLabel("Night Owl"))

	f := newServiceFixture(t)
	professor := testutil.CreateProfessor(t, f.db, "Prof", "prof@uni.edu")
	student := testutil.CreateStudent(t, f.db, "Stu", "stu@uni.edu")
	svc := f.badgeService()
	ctx := context.Background()

	custom := observability.BadgesAwarded().WithLabelValues("custom")
	before := promtestutil.ToFloat64(custom)
	series := promtestutil.CollectAndCount(observability.BadgesAwarded())

	for _, name := range []string{"Helper", "Night Owl", "Bug Hunter"} {
		_, err := svc.Award(ctx, principalOf(professor), dto.BadgeAwardRequest{StudentID: student.Student.ID, Name: name})
		require.NoError(t, err)
	}

	require.Equal(t, before+3, promtestutil.ToFloat64(custom))
	require.Equal(t, series, promtestutil.CollectAndCount(observability.BadgesAwarded()))
}
