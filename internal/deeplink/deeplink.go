package deeplink

import (
	"net/url"
	"strings"
)

type LinkType string

const (
	TypeGroup         LinkType = "group"
	TypeEvent         LinkType = "event"
	TypeReferral      LinkType = "referral"
	TypeAuth          LinkType = "auth"
	TypeNotifications LinkType = "notifications"
)

// Link is a parsed in-app route. ID holds the resource id, or the action for auth links.
type Link struct {
	Type   LinkType          `json:"type"`
	ID     string            `json:"id,omitempty"`
	Params map[string]string `json:"params,omitempty"`
}

// Parse accepts scheme://group/{id}, scheme://event/{id}, scheme://referral/{id},
// scheme://auth/{action} and scheme://notifications. Anything else is rejected with ok=false.
func Parse(scheme, raw string) (Link, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || !strings.EqualFold(u.Scheme, scheme) {
		return Link{}, false
	}

	// In scheme://group/42 the first segment lands in Host; in scheme:///group/42 it is in Path.
	segments := make([]string, 0, 3)
	if u.Host != "" {
		segments = append(segments, u.Host)
	}
	for _, s := range strings.Split(u.Path, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	if len(segments) == 0 {
		return Link{}, false
	}

	link := Link{Type: LinkType(strings.ToLower(segments[0]))}
	switch link.Type {
	case TypeGroup, TypeEvent, TypeReferral, TypeAuth:
		if len(segments) != 2 {
			return Link{}, false
		}
		link.ID = segments[1]
	case TypeNotifications:
		if len(segments) != 1 {
			return Link{}, false
		}
	default:
		return Link{}, false
	}

	if q := u.Query(); len(q) > 0 {
		link.Params = make(map[string]string, len(q))
		for k := range q {
			link.Params[k] = q.Get(k)
		}
	}
	return link, true
}

// Build renders the link for t and id under scheme.
func Build(scheme string, t LinkType, id string) string {
	if id == "" {
		return scheme + "://" + string(t)
	}
	return scheme + "://" + string(t) + "/" + url.PathEscape(id)
}

type Handler func(Link)

// Router dispatches parsed links to the handler registered for their type.
type Router struct {
	scheme   string
	handlers map[LinkType]Handler
}

func NewRouter(scheme string) *Router {
	return &Router{scheme: scheme, handlers: make(map[LinkType]Handler)}
}

func (r *Router) Handle(t LinkType, h Handler) {
	r.handlers[t] = h
}

func (r *Router) Resolve(raw string) (Link, bool) {
	return Parse(r.scheme, raw)
}

// Dispatch returns false, without side effects, for unparseable or unhandled links.
func (r *Router) Dispatch(raw string) bool {
	link, ok := r.Resolve(raw)
	if !ok {
		return false
	}
	h, ok := r.handlers[link.Type]
	if !ok {
		return false
	}
	h(link)
	return true
}
