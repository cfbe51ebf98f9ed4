package chat

import (
	"fmt"

	"github.com/rivo/tview"

	"github.com/m96-chan/slackline/internal/config"
	"github.com/m96-chan/slackline/internal/model"
)

// MembersPanel lists the resolved members of the watched channel.
type MembersPanel struct {
	*tview.List
	cfg       *config.Config
	channelID string
	members   []model.User
}

// NewMembersPanel creates an empty members panel.
func NewMembersPanel(cfg *config.Config) *MembersPanel {
	mp := &MembersPanel{
		List: tview.NewList(),
		cfg:  cfg,
	}
	mp.ShowSecondaryText(false)
	mp.SetHighlightFullLine(true)
	mp.SetBorder(true).SetTitle(" Members ")
	return mp
}

// SetMembers replaces the list for channelID.
func (mp *MembersPanel) SetMembers(channelID string, members []model.User) {
	mp.channelID = channelID
	mp.members = members

	mp.Clear()
	for _, u := range members {
		mp.AddItem(tview.Escape(u.DisplayName), "", 0, nil)
	}
	mp.SetTitle(fmt.Sprintf(" Members (%d) ", len(members)))
}

// Reset empties the panel.
func (mp *MembersPanel) Reset() {
	mp.channelID = ""
	mp.members = nil
	mp.Clear()
	mp.SetTitle(" Members ")
}

// ChannelID returns the channel whose members are listed.
func (mp *MembersPanel) ChannelID() string {
	return mp.channelID
}

// Members returns the listed members in display order.
func (mp *MembersPanel) Members() []model.User {
	return mp.members
}
