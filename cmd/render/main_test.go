package main

import (
	"testing"

	"github.com/spf13/cobra"
)

func flagsCmd(t *testing.T, flags ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "render"}
	cmd.Flags().Float64("lat", 0, "")
	cmd.Flags().Float64("lng", 0, "")
	if err := cmd.Flags().Parse(flags); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return cmd
}

func TestCoordinateMode(t *testing.T) {
	tests := []struct {
		name    string
		flags   []string
		args    []string
		want    bool
		wantErr bool
	}{
		{name: "place only", args: []string{"Waterloo"}},
		{name: "both flags", flags: []string{"--lat", "43.45", "--lng", "-80.49"}, want: true},
		{name: "zero coordinates count", flags: []string{"--lat", "0", "--lng", "0"}, want: true},
		{name: "lat only", flags: []string{"--lat", "43.45"}, wantErr: true},
		{name: "lng only", flags: []string{"--lng", "-80.49"}, args: []string{"Waterloo"}, wantErr: true},
		{name: "flags and place", flags: []string{"--lat", "1", "--lng", "2"}, args: []string{"Waterloo"}, wantErr: true},
		{name: "nothing", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := coordinateMode(flagsCmd(t, tt.flags...), tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
