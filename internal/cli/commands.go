package cli

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jhubafrica/points-service/internal/application/usecase"
)

type runner func(fn func(ctx context.Context, uc *usecase.ConsistencyUseCase, args []string) (interface{}, error)) func(*cobra.Command, []string) error

func newValidateCommand(run runner) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Report points and enrollment inconsistencies",
		Args:  cobra.NoArgs,
		RunE: run(func(ctx context.Context, uc *usecase.ConsistencyUseCase, _ []string) (interface{}, error) {
			report, err := uc.ValidateSystemConsistency(ctx)
			if err != nil {
				return nil, err
			}
			if !report.IsConsistent {
				return report, &ExitError{Code: ExitInconsistent, Err: errors.New("inconsistencies found")}
			}
			return report, nil
		}),
	}
}

func newCorrectUserCommand(run runner) *cobra.Command {
	return &cobra.Command{
		Use:   "correct-user <user-id>",
		Short: "Recompute and store one user's points",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(ctx context.Context, uc *usecase.ConsistencyUseCase, args []string) (interface{}, error) {
			userID, err := uuid.Parse(args[0])
			if err != nil {
				return nil, &ExitError{Code: ExitCommandError, Err: errors.New("user id must be a uuid")}
			}
			res, err := uc.CorrectUserData(ctx, userID)
			if err != nil {
				return nil, err
			}
			return res, nil
		}),
	}
}

func newCorrectAllCommand(run runner) *cobra.Command {
	var resume bool
	cmd := &cobra.Command{
		Use:   "correct-all",
		Short: "Recompute points for every eligible user",
		Args:  cobra.NoArgs,
		RunE: run(func(ctx context.Context, uc *usecase.ConsistencyUseCase, _ []string) (interface{}, error) {
			res, err := uc.CorrectAllUsersData(ctx, usecase.CorrectAllOptions{Resume: resume})
			if err != nil {
				return nil, err
			}
			if res.FailedUsers > 0 {
				return res, &ExitError{Code: ExitInconsistent, Err: errors.New("some users could not be corrected")}
			}
			return res, nil
		}),
	}
	cmd.Flags().BoolVar(&resume, "resume", false, "continue after the last checkpointed user")
	return cmd
}

func newAutoCorrectCommand(run runner) *cobra.Command {
	return &cobra.Command{
		Use:   "auto-correct",
		Short: "Clean up orphans, validate, and correct everyone if needed",
		Args:  cobra.NoArgs,
		RunE: run(func(ctx context.Context, uc *usecase.ConsistencyUseCase, _ []string) (interface{}, error) {
			res, err := uc.AutoCorrectSystem(ctx)
			if err != nil {
				return nil, err
			}
			return res, nil
		}),
	}
}

func newCleanupCommand(run runner) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup-orphans",
		Short: "Delete enrollments whose user no longer exists",
		Args:  cobra.NoArgs,
		RunE: run(func(ctx context.Context, uc *usecase.ConsistencyUseCase, _ []string) (interface{}, error) {
			removed, err := uc.CleanupOrphanedEnrollments(ctx)
			if err != nil {
				return nil, err
			}
			return map[string]int64{"orphansRemoved": removed}, nil
		}),
	}
}
