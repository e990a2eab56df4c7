package playback

import "testing"

func TestCommandChannel_SendAndDrain(t *testing.T) {
	ch := NewCommandChannel()
	ch.Send(Command{Kind: CmdPlaying})
	ch.Send(Command{Kind: CmdSetVolume, Volume: 0.5})

	drained := ch.Drain()
	if len(drained) != 2 {
		t.Fatalf("Drain() returned %d commands, want 2", len(drained))
	}
	if drained[0].Kind != CmdPlaying {
		t.Errorf("drained[0].Kind = %v, want CmdPlaying", drained[0].Kind)
	}
	if drained[1].Kind != CmdSetVolume || drained[1].Volume != 0.5 {
		t.Errorf("drained[1] = %+v, want CmdSetVolume/0.5", drained[1])
	}
}

func TestCommandChannel_DrainOnEmpty_ReturnsNil(t *testing.T) {
	ch := NewCommandChannel()
	if drained := ch.Drain(); len(drained) != 0 {
		t.Errorf("Drain() on empty channel = %v, want empty", drained)
	}
}

func TestCommandChannel_Send_DropsWhenFull(t *testing.T) {
	ch := NewCommandChannel()
	for i := 0; i < commandBufferSize+10; i++ {
		ch.Send(Command{Kind: CmdPlaying})
	}
	drained := ch.Drain()
	if len(drained) != commandBufferSize {
		t.Errorf("Drain() after overflow = %d commands, want %d", len(drained), commandBufferSize)
	}
}
