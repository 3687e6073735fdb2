package psutils

import (
	"context"
	"fmt"

	"www.velocidex.com/golang/semwatch/config"
	"www.velocidex.com/golang/semwatch/semaphores"
	"www.velocidex.com/golang/semwatch/utils"
)

// ResolveIdentities finds the accounts of the primary and helper
// process families. Helper processes often run partly as the primary
// user, so the helper user is the first one that differs from it.
func ResolveIdentities(ctx context.Context, table ProcessTable,
	primary_name, helper_name string) ([]semaphores.Identity, error) {
	primary_user, err := resolvePrimary(ctx, table, primary_name)
	if err != nil {
		return nil, err
	}

	helper_user, err := resolveHelper(ctx, table, helper_name, primary_user)
	if err != nil {
		return nil, err
	}

	return []semaphores.Identity{
		{Role: semaphores.PrimaryRole, User: primary_user},
		{Role: semaphores.HelperRole, User: helper_user},
	}, nil
}

func resolvePrimary(ctx context.Context, table ProcessTable,
	name string) (string, error) {
	users, err := table.UsersByCommand(ctx, name)
	if err != nil {
		return "", err
	}

	for _, u := range users {
		if u != "" {
			return u, nil
		}
	}
	return "", fmt.Errorf("%w: no %v process is running", utils.NotFoundError, name)
}

func resolveHelper(ctx context.Context, table ProcessTable,
	name, primary_user string) (string, error) {
	users, err := table.UsersByCommand(ctx, name)
	if err != nil {
		return "", err
	}

	if len(users) == 0 {
		return "", fmt.Errorf("%w: no %v process is running",
			utils.NotFoundError, name)
	}

	for _, u := range users {
		if u != "" && u != primary_user {
			return u, nil
		}
	}

	return "", fmt.Errorf("%w: every %v process runs as %v",
		utils.NotFoundError, name, primary_user)
}

// Applies the user overrides from the config and resolves the rest
// from the process table.
func ResolveConfiguredIdentities(ctx context.Context,
	config_obj *config.Config, table ProcessTable) ([]semaphores.Identity, error) {
	primary_user := config_obj.PrimaryUser
	if primary_user == "" {
		var err error
		primary_user, err = resolvePrimary(ctx, table, config_obj.PrimaryProcess)
		if err != nil {
			return nil, err
		}
	}

	helper_user := config_obj.HelperUser
	if helper_user == "" {
		var err error
		helper_user, err = resolveHelper(ctx, table,
			config_obj.HelperProcess, primary_user)
		if err != nil {
			return nil, err
		}
	}

	return []semaphores.Identity{
		{Role: semaphores.PrimaryRole, User: primary_user},
		{Role: semaphores.HelperRole, User: helper_user},
	}, nil
}
