package adaptor

import (
	"context"
	"log"
	"net"

	pb "github.com/ponyo877/roomwatch/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
)

// Adaptor serves KioskService on behalf of the fleet use case.
type Adaptor struct {
	uc         Usecase
	dispatcher *Dispatcher
	pb.UnimplementedKioskServiceServer
}

func NewAdaptor(uc Usecase, dispatcher *Dispatcher) *Adaptor {
	return &Adaptor{uc: uc, dispatcher: dispatcher}
}

// remoteHost is the kiosk's address as seen by the server, without the
// ephemeral port. The camera is dialed on this host.
func remoteHost(ctx context.Context) string {
	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return ""
	}
	addr := p.Addr.String()
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

func (a *Adaptor) Heartbeat(ctx context.Context, in *pb.HeartbeatRequest) (*pb.HeartbeatResponse, error) {
	kiosk, err := a.uc.HandleHeartbeat(in.GetComputerName(), remoteHost(ctx), int(in.GetTotalHints()), int(in.GetRoomTime()))
	if err != nil {
		log.Printf("Error handling heartbeat: %v", err)
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	return &pb.HeartbeatResponse{
		RoomID:   int32(kiosk.RoomID),
		Assigned: kiosk.Assigned,
	}, nil
}

func (a *Adaptor) RequestHelp(ctx context.Context, in *pb.HelpRequest) (*emptypb.Empty, error) {
	if err := a.uc.HandleHelpRequest(in.GetComputerName(), remoteHost(ctx)); err != nil {
		log.Printf("Error handling help request: %v", err)
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	return &emptypb.Empty{}, nil
}

// Subscribe streams notifications for one kiosk until the kiosk hangs up or
// a newer subscription for the same name replaces this one. A kiosk that is
// already assigned gets its assignment first.
func (a *Adaptor) Subscribe(in *pb.SubscribeRequest, stream pb.KioskService_SubscribeServer) error {
	name := in.GetComputerName()
	if name == "" {
		return status.Error(codes.InvalidArgument, "subscribe without computer name")
	}

	ch, cancel := a.dispatcher.Subscribe(name)
	defer cancel()
	log.Printf("Kiosk %s subscribed from %s", name, remoteHost(stream.Context()))

	if kiosk, ok := a.uc.Kiosk(name); ok && kiosk.Assigned {
		if err := stream.Send(pb.NewAssignmentNotification(kiosk.RoomID)); err != nil {
			return err
		}
	}

	for {
		select {
		case <-stream.Context().Done():
			log.Printf("Kiosk %s unsubscribed", name)
			return nil
		case n, ok := <-ch:
			if !ok {
				log.Printf("Subscription of %s replaced", name)
				return nil
			}
			if err := stream.Send(n); err != nil {
				log.Printf("Error sending %s notification to %s: %v", n.Kind, name, err)
				return err
			}
		}
	}
}
