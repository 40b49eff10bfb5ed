package mirror

import "net"

func (s *MirrorServer) sessionReceived(addr *net.UDPAddr) uint64 {
	session, _ := s.Session(addr.String())
	return session.received
}

func (s *MirrorServer) sessionRejected(addr *net.UDPAddr) uint64 {
	session, _ := s.Session(addr.String())
	return session.rejected
}
