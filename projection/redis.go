// Package projection maintains a Redis read model of the authorization
// state. Other services can answer "does this explicit grant exist" and
// enumerate entities without loading a full engine; evaluation still
// belongs to the grants package.
package projection

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/vespertan/privileges/grants"
)

// Redis mirrors engine change events into Redis sets and hashes:
//
//	<prefix>privileges        SET of privilege ids
//	<prefix>users             SET of user ids
//	<prefix>groups            SET of group ids
//	<prefix>relations         SET of canonical relation strings
//	<prefix>grants            HASH pair key -> "allow" | "deny"
type Redis struct {
	client *redis.Client
	prefix string
	log    *zap.Logger
}

// Option configures the projection.
type Option func(*Redis)

// WithLogger attaches a logger; write failures are logged.
func WithLogger(log *zap.Logger) Option {
	return func(p *Redis) {
		p.log = log
	}
}

// New creates a projection writing through the given client.
func New(client *redis.Client, prefix string, opts ...Option) *Redis {
	if prefix == "" {
		prefix = "privileges:"
	}
	p := &Redis{client: client, prefix: prefix}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Redis) key(suffix string) string {
	return p.prefix + suffix
}

// Rebuild clears the projection and refills it from a full snapshot.
func (p *Redis) Rebuild(ctx context.Context, src grants.Source) error {
	privileges, err := src.Privileges(ctx)
	if err != nil {
		return err
	}
	users, err := src.Users(ctx)
	if err != nil {
		return err
	}
	groups, err := src.Groups(ctx)
	if err != nil {
		return err
	}
	relations, err := src.Relations(ctx)
	if err != nil {
		return err
	}
	grantRows, err := src.Grants(ctx)
	if err != nil {
		return err
	}

	pipe := p.client.Pipeline()
	pipe.Del(ctx,
		p.key("privileges"), p.key("users"), p.key("groups"),
		p.key("relations"), p.key("grants"),
	)
	for _, id := range privileges {
		pipe.SAdd(ctx, p.key("privileges"), string(id))
	}
	for _, id := range users {
		pipe.SAdd(ctx, p.key("users"), string(id))
	}
	for _, id := range groups {
		pipe.SAdd(ctx, p.key("groups"), string(id))
	}
	for _, r := range relations {
		pipe.SAdd(ctx, p.key("relations"), r.String())
	}
	for _, g := range grantRows {
		pipe.HSet(ctx, p.key("grants"), grantField(g), grantValue(g))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("projection: rebuild failed: %w", err)
	}
	return nil
}

// Listener returns the listener to subscribe on an engine. Each change
// event turns into one Redis write.
func (p *Redis) Listener() grants.Listener {
	return func(ev grants.Event) {
		ctx := context.Background()
		var err error
		switch ev.Kind {
		case grants.EventPrivilegeAdded:
			err = p.client.SAdd(ctx, p.key("privileges"), string(ev.Privilege)).Err()
		case grants.EventPrivilegeRemoved:
			err = p.client.SRem(ctx, p.key("privileges"), string(ev.Privilege)).Err()
		case grants.EventUserAdded:
			err = p.client.SAdd(ctx, p.key("users"), string(ev.User)).Err()
		case grants.EventUserRemoved:
			err = p.client.SRem(ctx, p.key("users"), string(ev.User)).Err()
		case grants.EventGroupAdded:
			err = p.client.SAdd(ctx, p.key("groups"), string(ev.Group)).Err()
		case grants.EventGroupRemoved:
			err = p.client.SRem(ctx, p.key("groups"), string(ev.Group)).Err()
		case grants.EventRelationAdded:
			err = p.client.SAdd(ctx, p.key("relations"), ev.Relation.String()).Err()
		case grants.EventRelationRemoved:
			err = p.client.SRem(ctx, p.key("relations"), ev.Relation.String()).Err()
		case grants.EventGrantAdded, grants.EventGrantUpdated:
			err = p.client.HSet(ctx, p.key("grants"), grantField(ev.Grant), grantValue(ev.Grant)).Err()
		case grants.EventGrantRemoved:
			err = p.client.HDel(ctx, p.key("grants"), grantField(ev.Grant)).Err()
		}
		if err != nil && p.log != nil {
			p.log.Error("projection: apply event",
				zap.String("kind", string(ev.Kind)),
				zap.Error(err),
			)
		}
	}
}

// HasRelation reports whether the projection contains the relation.
func (p *Redis) HasRelation(ctx context.Context, r grants.Relation) (bool, error) {
	ok, err := p.client.SIsMember(ctx, p.key("relations"), r.String()).Result()
	if err != nil {
		return false, fmt.Errorf("projection: relation lookup failed: %w", err)
	}
	return ok, nil
}

// ExplicitGrant returns the projected decision for one (privilege,
// principal) pair. Missing pairs report Unknown.
func (p *Redis) ExplicitGrant(ctx context.Context, privilege grants.PrivilegeID, principal grants.Principal) (grants.Decision, error) {
	field := string(privilege) + "@" + principal.String()
	val, err := p.client.HGet(ctx, p.key("grants"), field).Result()
	if err == redis.Nil {
		return grants.Unknown, nil
	}
	if err != nil {
		return grants.Unknown, fmt.Errorf("projection: grant lookup failed: %w", err)
	}
	if val == "allow" {
		return grants.Allow, nil
	}
	return grants.Deny, nil
}

func grantField(g grants.Grant) string {
	return string(g.Privilege) + "@" + g.Principal.String()
}

func grantValue(g grants.Grant) string {
	if g.Allow {
		return "allow"
	}
	return "deny"
}
