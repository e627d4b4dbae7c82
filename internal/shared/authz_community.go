package shared

// Community channel permissions declared for RBAC.
const (
	PermViewCommunityChannel = "view_community_channel"
	PermPostCommunityMessage = "post_community_message"
	PermModerateCommunity    = "moderate_community"
)

// CommunityScopes lists all permissions related to community channels.
func CommunityScopes() []string {
	return []string{
		PermViewCommunityChannel,
		PermPostCommunityMessage,
		PermModerateCommunity,
	}
}
