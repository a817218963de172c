package domain

// ChannelName identifies a radio channel. Channels exist while they have at
// least one member.
type ChannelName string
