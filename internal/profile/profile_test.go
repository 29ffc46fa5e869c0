package profile

import "testing"

func TestEffectiveAction(t *testing.T) {
	cases := []struct {
		name string
		p    Profile
		want Action
	}{
		{name: "explicit action kept", p: Profile{Action: ActionConvert}, want: ActionConvert},
		{name: "empty action defaults to rename", p: Profile{}, want: ActionRename},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.p.EffectiveAction(); got != tc.want {
				t.Errorf("EffectiveAction() = %q; want %q", got, tc.want)
			}
		})
	}
}

func TestValidAction(t *testing.T) {
	if !ValidAction(ActionRename) || !ValidAction(ActionConvert) || !ValidAction(ActionRenameConvert) {
		t.Error("expected all declared actions to be valid")
	}
	if ValidAction(Action("bogus")) {
		t.Error("expected unknown action to be invalid")
	}
}
