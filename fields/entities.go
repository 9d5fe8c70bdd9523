package fields

var (
	tierOrder   = []Tier{TierBasic, TierEnhanced, TierFull, TierSearch, TierSocial}
	entityOrder = []EntityType{EntityProfile, EntityEvent, EntityTicket, EntityOrganization, EntityPost}
)

// set is a compile time field list; with appends without mutating the receiver
// so tiers compose as supersets of each other.
type set []FieldSpec

func scalars(names ...Field) set {
	out := make(set, len(names))
	for i, n := range names {
		out[i] = FieldSpec{Name: n}
	}
	return out
}

func (s set) with(more ...FieldSpec) set {
	out := make(set, 0, len(s)+len(more))
	out = append(out, s...)
	return append(out, more...)
}

func (s set) withScalars(names ...Field) set {
	return s.with(scalars(names...)...)
}

func relation(name Field, table, model string, sub set) FieldSpec {
	return FieldSpec{Name: name, Relation: &Relation{Table: table, Model: model, Fields: sub}}
}

// user_profiles
var (
	profileBasic    = scalars("id", "user_id", "display_name", "username", "avatar_url")
	profileEnhanced = profileBasic.withScalars("bio", "location", "website_url", "is_verified", "role", "created_at", "updated_at")
	profileFull     = profileEnhanced.with(
		relation("organizations", "organization_members", "Memberships", scalars("organization_id", "role")),
	)
	profileSearch = profileBasic.withScalars("bio", "location", "is_verified")
	profileSocial = profileBasic.withScalars("is_verified", "followers_count", "following_count", "posts_count")
)

// events
var (
	eventBasic    = scalars("id", "title", "slug", "start_at", "cover_image_url", "status")
	eventEnhanced = eventBasic.withScalars("description", "end_at", "venue", "city", "category", "visibility", "organizer_id", "created_at")
	eventFull     = eventEnhanced.with(
		relation("organizer", "user_profiles", "Organizer", scalars("id", "display_name", "avatar_url")),
		relation("ticket_tiers", "ticket_tiers", "TicketTiers", scalars("id", "name", "price_cents", "quantity", "sold")),
	)
	eventSearch = eventBasic.withScalars("venue", "city", "category")
	eventSocial = eventBasic.withScalars("likes_count", "comments_count", "attendee_count")
)

// tickets define no search or social tier; those requests fall back.
var (
	ticketBasic    = scalars("id", "event_id", "owner_id", "status")
	ticketEnhanced = ticketBasic.withScalars("tier_id", "qr_code", "price_cents", "purchased_at")
	ticketFull     = ticketEnhanced.with(
		relation("event", "events", "Event", scalars("id", "title", "start_at", "venue")),
		relation("tier", "ticket_tiers", "Tier", scalars("id", "name")),
	)
)

// organizations
var (
	organizationBasic    = scalars("id", "name", "slug", "logo_url")
	organizationEnhanced = organizationBasic.withScalars("description", "website_url", "is_verified", "created_at")
	organizationFull     = organizationEnhanced.with(
		relation("members", "organization_members", "Members", scalars("user_id", "role")),
	)
	organizationSearch = organizationBasic.withScalars("description", "is_verified")
)

// event_posts
var (
	postBasic    = scalars("id", "author_id", "event_id", "body", "created_at")
	postEnhanced = postBasic.withScalars("media_url", "media_type", "visibility", "updated_at")
	postFull     = postEnhanced.with(
		relation("author", "user_profiles", "Author", scalars("id", "display_name", "avatar_url")),
		relation("event", "events", "Event", scalars("id", "title")),
	)
	postSocial = postBasic.withScalars("likes_count", "comments_count", "shares_count")
)

var registry = map[EntityType]map[Tier]set{
	EntityProfile: {
		TierBasic:    profileBasic,
		TierEnhanced: profileEnhanced,
		TierFull:     profileFull,
		TierSearch:   profileSearch,
		TierSocial:   profileSocial,
	},
	EntityEvent: {
		TierBasic:    eventBasic,
		TierEnhanced: eventEnhanced,
		TierFull:     eventFull,
		TierSearch:   eventSearch,
		TierSocial:   eventSocial,
	},
	EntityTicket: {
		TierBasic:    ticketBasic,
		TierEnhanced: ticketEnhanced,
		TierFull:     ticketFull,
	},
	EntityOrganization: {
		TierBasic:    organizationBasic,
		TierEnhanced: organizationEnhanced,
		TierFull:     organizationFull,
		TierSearch:   organizationSearch,
	},
	EntityPost: {
		TierBasic:    postBasic,
		TierEnhanced: postEnhanced,
		TierFull:     postFull,
		TierSocial:   postSocial,
	},
}
